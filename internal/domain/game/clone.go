package game

// Deep copies used by stores so no engine ever holds an aliased reference
// into another engine's entity.

func (v Vehicle) Clone() Vehicle {
	out := v
	out.Cargo = v.Cargo.Clone()
	if v.Travel != nil {
		t := *v.Travel
		out.Travel = &t
	}
	return out
}

func (m Mission) Clone() Mission {
	out := m
	out.RequiredCargo = m.RequiredCargo.Clone()
	if m.AcceptedAt != nil {
		t := *m.AcceptedAt
		out.AcceptedAt = &t
	}
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		out.CompletedAt = &t
	}
	if m.Deadline != nil {
		t := *m.Deadline
		out.Deadline = &t
	}
	return out
}

func (e MarketEntry) Clone() MarketEntry {
	out := e
	out.History = append([]PricePoint(nil), e.History...)
	return out
}

func (r CombatRecord) Clone() CombatRecord {
	out := r
	out.Rounds = append([]CombatRound(nil), r.Rounds...)
	out.CargoTransfer = r.CargoTransfer.Clone()
	return out
}
