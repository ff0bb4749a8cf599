package domain

import (
	"fmt"
	"strings"
)

// Validation bounds for user input. User-facing messages are Spanish,
// matching the product's locale.
const (
	TransactionNameMin = 3
	TransactionNameMax = 40
	CategoryNameMin    = 2
	CategoryNameMax    = 100
	UsernameMin        = 2
	UsernameMax        = 30
	PasswordMin        = 6
)

// ValidateTransactionInput checks a transaction payload before any
// network call. Returns *ErrValidation carrying every violated rule.
func ValidateTransactionInput(in TransactionInput) error {
	var errs []string

	if in.Amount <= 0 {
		errs = append(errs, "El monto debe ser mayor a 0")
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		errs = append(errs, "Debe seleccionar una categoría")
	}
	if !in.Type.Valid() {
		errs = append(errs, `El tipo debe ser "ingreso" o "gasto"`)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs = append(errs, "El nombre es obligatorio")
	} else {
		if len([]rune(name)) < TransactionNameMin {
			errs = append(errs, fmt.Sprintf("El nombre debe tener al menos %d caracteres", TransactionNameMin))
		}
		if len([]rune(name)) > TransactionNameMax {
			errs = append(errs, fmt.Sprintf("El nombre no puede exceder %d caracteres", TransactionNameMax))
		}
	}

	if len(errs) > 0 {
		return &ErrValidation{Errors: errs}
	}
	return nil
}

// ValidateCategoryInput checks a category payload.
func ValidateCategoryInput(in CategoryInput) error {
	var errs []string

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs = append(errs, "El nombre es obligatorio")
	} else {
		if len([]rune(name)) < CategoryNameMin {
			errs = append(errs, fmt.Sprintf("El nombre debe tener al menos %d caracteres", CategoryNameMin))
		}
		if len([]rune(name)) > CategoryNameMax {
			errs = append(errs, fmt.Sprintf("El nombre no puede exceder %d caracteres", CategoryNameMax))
		}
	}
	if !in.Type.Valid() {
		errs = append(errs, `El tipo debe ser "ingreso" o "gasto"`)
	}

	if len(errs) > 0 {
		return &ErrValidation{Errors: errs}
	}
	return nil
}

// ValidateProfileInput checks a profile update payload.
func ValidateProfileInput(in ProfileInput) error {
	var errs []string

	username := strings.TrimSpace(in.Username)
	if username == "" {
		errs = append(errs, "El nombre de usuario es obligatorio")
	} else {
		if len([]rune(username)) < UsernameMin {
			errs = append(errs, fmt.Sprintf("El nombre de usuario debe tener al menos %d caracteres", UsernameMin))
		}
		if len([]rune(username)) > UsernameMax {
			errs = append(errs, fmt.Sprintf("El nombre de usuario no puede exceder %d caracteres", UsernameMax))
		}
	}

	if len(errs) > 0 {
		return &ErrValidation{Errors: errs}
	}
	return nil
}

// ValidateCredentials checks registration/login credentials.
// Username rules apply only when a username is expected (registration).
func ValidateCredentials(username, email, password string, requireUsername bool) error {
	var errs []string

	if requireUsername {
		if err := ValidateProfileInput(ProfileInput{Username: username}); err != nil {
			if v, ok := err.(*ErrValidation); ok {
				errs = append(errs, v.Errors...)
			}
		}
	}

	email = strings.TrimSpace(email)
	if email == "" {
		errs = append(errs, "El email es obligatorio")
	} else if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		errs = append(errs, "Formato de email inválido")
	}

	if strings.TrimSpace(password) == "" {
		errs = append(errs, "La contraseña es obligatoria")
	} else if len(password) < PasswordMin {
		errs = append(errs, fmt.Sprintf("La contraseña debe tener al menos %d caracteres", PasswordMin))
	}

	if len(errs) > 0 {
		return &ErrValidation{Errors: errs}
	}
	return nil
}
