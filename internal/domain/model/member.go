package model

// Member is a lab member.
type Member struct {
	ID      string
	Name    string
	Email   string
	IsAdmin bool

	// Optional profile fields, empty when absent.
	Picture string
	Phone   string
	Role    string
}

// DecodeMember requires id, name and email.
func DecodeMember(p Payload) (Member, bool) {
	id, ok1 := p.String("id")
	name, ok2 := p.String("name")
	email, ok3 := p.String("email")
	if !ok1 || !ok2 || !ok3 {
		return Member{}, false
	}
	m := Member{ID: id, Name: name, Email: email}
	m.IsAdmin, _ = p.Bool("isAdmin")
	m.Picture, _ = p.String("picture")
	m.Phone, _ = p.String("phone")
	m.Role, _ = p.String("role")
	return m, true
}

// Payload encodes m in the wire shape DecodeMember reads.
func (m Member) Payload() Payload {
	p := Payload{
		"id":      m.ID,
		"name":    m.Name,
		"email":   m.Email,
		"isAdmin": m.IsAdmin,
	}
	setString(p, "picture", m.Picture)
	setString(p, "phone", m.Phone)
	setString(p, "role", m.Role)
	return p
}

func setString(p Payload, key, v string) {
	if v != "" {
		p[key] = v
	}
}
