package model

// VotingOption is one choice of a voting event.
type VotingOption struct {
	ID   string
	Name string
	// Points is only sent to admins and after results are released.
	Points *int
	Awards []string

	// Local selection state, sent on submit only.
	IsVotedFor bool
	VoteOrder  int
}

// DecodeVotingOption requires id and name.
func DecodeVotingOption(p Payload) (VotingOption, bool) {
	id, ok1 := p.String("id")
	name, ok2 := p.String("name")
	if !ok1 || !ok2 {
		return VotingOption{}, false
	}
	o := VotingOption{ID: id, Name: name}
	if n, ok := p.Int("points"); ok {
		o.Points = &n
	}
	if raw, ok := p.List("awards"); ok {
		o.Awards = stringList(raw)
	}
	return o, true
}

// Payload encodes o without the local selection state.
func (o VotingOption) Payload() Payload {
	p := Payload{"name": o.Name}
	setString(p, "id", o.ID)
	return p
}

// Ballot builds the submission body from the selected options in vote order.
func Ballot(options []VotingOption) Payload {
	selected := make([]VotingOption, 0, len(options))
	for _, o := range options {
		if o.IsVotedFor {
			selected = append(selected, o)
		}
	}
	// insertion sort keeps equal orders stable
	for i := 1; i < len(selected); i++ {
		for j := i; j > 0 && selected[j].VoteOrder < selected[j-1].VoteOrder; j-- {
			selected[j], selected[j-1] = selected[j-1], selected[j]
		}
	}
	votes := make([]any, 0, len(selected))
	for _, o := range selected {
		votes = append(votes, o.ID)
	}
	return Payload{"votes": votes}
}
