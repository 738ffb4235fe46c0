// Package validate holds the pure field predicates guarding every record
// mutation. Rules are deliberately permissive where the domain is
// international (phone numbers) and strict where syntax matters (email, URL).
package validate

import (
	"strings"

	"github.com/asaskevich/govalidator"

	domainerrors "clinicdesk/pkg/domain-errors"
)

// Kind names a single violation. The set is small on purpose: callers render
// kinds, not messages, so presentation stays in the view layer.
type Kind string

const (
	TooShort      Kind = "too_short"
	InvalidFormat Kind = "invalid_format"
)

const (
	minNameLen    = 2
	minPhoneLen   = 5
	minAddressLen = 5
)

// Name fails TooShort when the trimmed value is under two characters.
func Name(v string) []Kind {
	if len(strings.TrimSpace(v)) < minNameLen {
		return []Kind{TooShort}
	}
	return nil
}

// Email fails InvalidFormat on anything that is not a syntactically valid
// address. Empty input is also InvalidFormat: required-ness is the caller's
// concern only for optional fields, and no record in this domain has an
// optional email.
func Email(v string) []Kind {
	if !govalidator.IsEmail(v) {
		return []Kind{InvalidFormat}
	}
	return nil
}

// Phone fails TooShort under five characters. Format is unconstrained so
// international notations ("+49 ...", "(02) ...") pass untouched.
func Phone(v string) []Kind {
	if len(v) < minPhoneLen {
		return []Kind{TooShort}
	}
	return nil
}

// Address fails TooShort under five characters.
func Address(v string) []Kind {
	if len(v) < minAddressLen {
		return []Kind{TooShort}
	}
	return nil
}

// URL fails InvalidFormat when non-empty and not a well-formed URL. The empty
// string is valid: "cleared" is a legal state distinct from "not provided",
// which callers model with a nil pointer.
func URL(v string) []Kind {
	if v == "" {
		return nil
	}
	if !govalidator.IsURL(v) {
		return []Kind{InvalidFormat}
	}
	return nil
}

// Violations aggregates every field failure of a composite validation run.
// The zero value is ready to use.
type Violations map[string][]Kind

// Add records kinds for a field. A nil or empty kinds slice is a no-op so
// rule calls can be chained without branching:
//
//	v.Add("email", validate.Email(d.Email))
func (v *Violations) Add(field string, kinds []Kind) {
	if len(kinds) == 0 {
		return
	}
	if *v == nil {
		*v = Violations{}
	}
	(*v)[field] = append((*v)[field], kinds...)
}

// OK reports whether no violation was recorded.
func (v Violations) OK() bool { return len(v) == 0 }

// Err converts the aggregate into a CodeValidation domain error, or nil when
// validation passed.
func (v Violations) Err() error {
	if v.OK() {
		return nil
	}
	fields := make(map[string][]string, len(v))
	for field, kinds := range v {
		ss := make([]string, len(kinds))
		for i, k := range kinds {
			ss[i] = string(k)
		}
		fields[field] = ss
	}
	return domainerrors.NewValidation("one or more fields are invalid", fields)
}
