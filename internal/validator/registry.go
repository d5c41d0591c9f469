package validator

// Registry holds validators in execution order, indexed by rule key.
type Registry struct {
	ordered    []Validator
	validators map[string]Validator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]Validator)}
}

// Register appends a validator. Registering an existing key replaces the
// validator in place, keeping its position.
func (r *Registry) Register(v Validator) {
	if _, ok := r.validators[v.RuleKey()]; ok {
		for i, existing := range r.ordered {
			if existing.RuleKey() == v.RuleKey() {
				r.ordered[i] = v
			}
		}
	} else {
		r.ordered = append(r.ordered, v)
	}
	r.validators[v.RuleKey()] = v
}

// Get returns the validator for a given rule key, or nil if not found.
func (r *Registry) Get(key string) Validator {
	return r.validators[key]
}

// All returns all registered validators in execution order.
func (r *Registry) All() []Validator {
	out := make([]Validator, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of registered validators.
func (r *Registry) Len() int { return len(r.ordered) }
