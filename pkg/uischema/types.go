package uischema

// Hints holds the UI directives for one schema node and its children.
type Hints struct {
	Widget      string            `json:"widget,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Help        string            `json:"help,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	ClassNames  string            `json:"classNames,omitempty"`
	Order       []string          `json:"order,omitempty"`
	Disabled    bool              `json:"disabled,omitempty"`
	ReadOnly    bool              `json:"readonly,omitempty"`
	AutoFocus   bool              `json:"autofocus,omitempty"`
	Rows        int               `json:"rows,omitempty"`
	Options     map[string]any    `json:"options,omitempty"`
	Children    map[string]*Hints `json:"children,omitempty"`
}

// Child returns the hints for a property or the "items" node. A nil
// receiver or missing child yields nil.
func (h *Hints) Child(name string) *Hints {
	if h == nil || len(h.Children) == 0 {
		return nil
	}
	return h.Children[name]
}

// Hidden reports whether the node should render as a hidden input.
func (h *Hints) Hidden() bool {
	return h != nil && h.Widget == "hidden"
}

// Empty reports whether no directive is set.
func (h *Hints) Empty() bool {
	if h == nil {
		return true
	}
	return h.Widget == "" && h.Title == "" && h.Description == "" && h.Help == "" &&
		h.Placeholder == "" && h.ClassNames == "" && len(h.Order) == 0 && !h.Disabled &&
		!h.ReadOnly && !h.AutoFocus && h.Rows == 0 && len(h.Options) == 0 && len(h.Children) == 0
}
