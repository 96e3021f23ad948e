package modules

// Resolution is the outcome of offering a specifier to a handler: either
// Resolved with an ID, or Unhandled.
type Resolution struct {
	id      ModuleID
	handled bool
}

// Resolved claims a specifier as id.
func Resolved(id ModuleID) Resolution {
	return Resolution{id: id, handled: true}
}

// Unhandled declines a specifier so later handlers may claim it.
func Unhandled() Resolution {
	return Resolution{}
}

// Handled reports whether the specifier was claimed.
func (r Resolution) Handled() bool { return r.handled }

// ID returns the resolved module ID, or "" when unhandled.
func (r Resolution) ID() ModuleID { return r.id }
