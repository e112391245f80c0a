package model

import "time"

// EquipmentType discriminates single items from stocked collections.
type EquipmentType string

const (
	EquipmentSingle     EquipmentType = "single"
	EquipmentCollection EquipmentType = "collection"
)

// Equipment is a borrowable item or stock of items.
type Equipment struct {
	ID          string
	Name        string
	Type        EquipmentType
	TotalStock  int
	Description string

	// CheckingOut lists members currently holding a unit.
	CheckingOut  []Member
	LastCheckOut *CheckOutRecord
}

// CheckOutRecord is one borrow of an equipment.
type CheckOutRecord struct {
	Member         Member
	Start          time.Time
	End            *time.Time // nil while the checkout is active
	ExpectedReturn *time.Time
}

// Active reports whether the record has not been returned.
func (r CheckOutRecord) Active() bool { return r.End == nil }

// IsCheckedOut reports whether no unit is left to borrow.
func (e Equipment) IsCheckedOut() bool {
	if e.Type == EquipmentCollection {
		return len(e.CheckingOut) >= e.TotalStock
	}
	return e.LastCheckOut != nil && e.LastCheckOut.Active()
}

// HasActiveCheckOut reports whether at least one unit is out.
func (e Equipment) HasActiveCheckOut() bool {
	if e.Type == EquipmentCollection {
		return len(e.CheckingOut) > 0
	}
	return e.IsCheckedOut()
}

// Available returns how many units can still be borrowed.
func (e Equipment) Available() int {
	if e.Type == EquipmentCollection {
		if n := e.TotalStock - len(e.CheckingOut); n > 0 {
			return n
		}
		return 0
	}
	if e.IsCheckedOut() {
		return 0
	}
	return 1
}

// DecodeEquipment requires id and name. type defaults to single and totalStock
// to 1; an unknown type or a stock below 1 fails.
func DecodeEquipment(p Payload) (Equipment, bool) {
	id, ok1 := p.String("id")
	name, ok2 := p.String("name")
	if !ok1 || !ok2 {
		return Equipment{}, false
	}
	e := Equipment{ID: id, Name: name, Type: EquipmentSingle, TotalStock: 1}

	if p.Has("type") {
		t, _ := p.String("type")
		switch EquipmentType(t) {
		case EquipmentSingle, EquipmentCollection:
			e.Type = EquipmentType(t)
		default:
			return Equipment{}, false
		}
	}
	if p.Has("totalStock") {
		n, ok := p.Int("totalStock")
		if !ok || n < 1 {
			return Equipment{}, false
		}
		e.TotalStock = n
	}
	e.Description, _ = p.String("description")
	if raw, ok := p.List("checkingOut"); ok {
		e.CheckingOut = DecodeList(raw, DecodeMember)
	}
	if p.Has("lastCheckOut") {
		rp, ok := p.Object("lastCheckOut")
		if !ok {
			return Equipment{}, false
		}
		r, ok := DecodeCheckOutRecord(rp)
		if !ok {
			return Equipment{}, false
		}
		e.LastCheckOut = &r
	}
	return e, true
}

// DecodeCheckOutRecord requires member and startDate.
func DecodeCheckOutRecord(p Payload) (CheckOutRecord, bool) {
	mp, ok := p.Object("member")
	if !ok {
		return CheckOutRecord{}, false
	}
	m, ok := DecodeMember(mp)
	if !ok {
		return CheckOutRecord{}, false
	}
	start, ok := p.Date("startDate")
	if !ok {
		return CheckOutRecord{}, false
	}
	r := CheckOutRecord{Member: m, Start: start}
	if r.End, ok = p.optionalDate("endDate"); !ok {
		return CheckOutRecord{}, false
	}
	if r.ExpectedReturn, ok = p.optionalDate("expectedReturnDate"); !ok {
		return CheckOutRecord{}, false
	}
	return r, true
}

// Payload encodes e for create and update requests.
func (e Equipment) Payload() Payload {
	p := Payload{
		"name":       e.Name,
		"type":       string(e.Type),
		"totalStock": e.TotalStock,
	}
	setString(p, "id", e.ID)
	setString(p, "description", e.Description)
	return p
}
