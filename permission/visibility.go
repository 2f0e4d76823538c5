package permission

// Display is an element's visibility setting. The zero value means the
// element's own default.
type Display string

// DisplayNone hides an element.
const DisplayNone Display = "none"

// Element is the visibility state of one gated UI element.
type Element struct {
	Display    Display
	AriaHidden bool

	saved *Display
}

// Binding toggles an [Element] according to a feature/action grant.
type Binding struct {
	checker *Checker
	feature Feature
	action  string
}

// Bind ties a grant to elements. Call Apply whenever the session changes.
func (c *Checker) Bind(feature Feature, action string) *Binding {
	return &Binding{checker: c, feature: feature, action: action}
}

// Apply hides el when the grant is absent, remembering its prior display so a
// later grant restores it exactly.
func (b *Binding) Apply(el *Element) {
	if b.checker.HasPermission(b.feature, b.action) {
		if el.saved != nil {
			el.Display = *el.saved
			el.saved = nil
		}
		el.AriaHidden = false
		return
	}
	if el.saved == nil {
		prior := el.Display
		el.saved = &prior
	}
	el.Display = DisplayNone
	el.AriaHidden = true
}

// Gate runs render only when the grant is present.
func (c *Checker) Gate(feature Feature, action string, render func() error) error {
	if !c.HasPermission(feature, action) {
		return nil
	}
	return render()
}
