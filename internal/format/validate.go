package format

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// Validation messages.
const (
	MsgPasswordRequired     = "La contraseña es requerida"
	MsgNewPasswordRequired  = "La nueva contraseña es requerida"
	MsgPasswordTooShort     = "La contraseña debe tener al menos 6 caracteres"
	MsgPasswordNeedsLetter  = "La contraseña debe contener al menos una letra"
	MsgPasswordNeedsDigit   = "La contraseña debe contener al menos un número"
	MsgConfirmRequired      = "Debe confirmar la contraseña"
	MsgPasswordsDoNotMatch  = "Las contraseñas no coinciden"
	MsgUsuarioRequired      = "El usuario es requerido"
	MsgCodigoRequired       = "El código es requerido"
	MsgCodigoLength         = "El código debe tener 6 caracteres"
	MsgResetTokenMissing    = "Token inválido o faltante"
	MsgDNIRequired          = "DNI es requerido"
	MsgDNIFormat            = "DNI debe tener 8 dígitos"
	MsgPhoneFormat          = "Formato de teléfono inválido"
	MinPasswordLength       = 6
	CodigoLength            = 6
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	dniRe   = regexp.MustCompile(`^\d{8}$`)
	phoneRe = regexp.MustCompile(`^(\+51|51)?9\d{8}$`)
)

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailRe.MatchString(s)
}

// PasswordStrength lists every rule a password breaks. An empty password
// only reports that it is required.
func PasswordStrength(password string) []string {
	if password == "" {
		return []string{MsgPasswordRequired}
	}

	var problems []string
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, MsgPasswordTooShort)
	}
	if !strings.ContainsFunc(password, unicode.IsLetter) {
		problems = append(problems, MsgPasswordNeedsLetter)
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		problems = append(problems, MsgPasswordNeedsDigit)
	}
	return problems
}

// Confirmation checks a repeated password. It returns "" when valid.
func Confirmation(password, confirmation string) string {
	if strings.TrimSpace(confirmation) == "" {
		return MsgConfirmRequired
	}
	if password != confirmation {
		return MsgPasswordsDoNotMatch
	}
	return ""
}

// Required returns "<label> es requerido" when value is blank.
func Required(value, label string) string {
	if strings.TrimSpace(value) == "" {
		if label == "" {
			label = "Campo"
		}
		return fmt.Sprintf("%s es requerido", label)
	}
	return ""
}

// DNI validates a Peruvian national ID number.
func DNI(dni string) string {
	if dni == "" {
		return MsgDNIRequired
	}
	if !dniRe.MatchString(dni) {
		return MsgDNIFormat
	}
	return ""
}

// Phone validates an optional Peruvian mobile number.
func Phone(phone string) string {
	if phone == "" {
		return ""
	}
	compact := strings.Join(strings.Fields(phone), "")
	if !phoneRe.MatchString(compact) {
		return MsgPhoneFormat
	}
	return ""
}

// Errors maps form field names to messages. An empty map means the form is valid.
type Errors map[string]string

// Add records msg for field unless msg is empty or the field already failed.
func (e Errors) Add(field, msg string) {
	if msg == "" {
		return
	}
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Valid reports whether no field failed.
func (e Errors) Valid() bool { return len(e) == 0 }

// Error lists the messages in field order so output is stable.
func (e Errors) Error() string {
	keys := slices.Sorted(maps.Keys(e))
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e[k])
	}
	return strings.Join(msgs, "; ")
}

// Rule validates one form field.
type Rule struct {
	Label     string
	Required  bool
	Validator func(string) string
}

// Form applies rules to values. Required fields that are empty report
// "<label> es requerido"; validators only run on non-empty values.
func Form(values map[string]string, rules map[string]Rule) Errors {
	errs := Errors{}
	for field, rule := range rules {
		value := values[field]
		label := rule.Label
		if label == "" {
			label = field
		}

		if rule.Required && value == "" {
			errs.Add(field, fmt.Sprintf("%s es requerido", label))
			continue
		}
		if value != "" && rule.Validator != nil {
			errs.Add(field, rule.Validator(value))
		}
	}
	return errs
}
