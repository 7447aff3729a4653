package customvalidator

import (
	"regexp"

	"facility-crm/pkg/constants"
	"facility-crm/pkg/utils"

	"github.com/go-playground/validator/v10"
)

// resource:action, resource:*, scope:own, superuser
var permissionKeyRegexp = regexp.MustCompile(`^(superuser|[a-z][a-z_]*:([a-z][a-z_]*|\*))$`)

// RegisterCustomValidations регистрирует доменные правила в экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("phone", isPhone); err != nil {
		return err
	}
	if err := v.RegisterValidation("permission_key", isPermissionKey); err != nil {
		return err
	}
	if err := v.RegisterValidation("modal_type", isModalType); err != nil {
		return err
	}
	return nil
}

func isPhone(fl validator.FieldLevel) bool {
	return utils.IsE164(fl.Field().String())
}

func isPermissionKey(fl validator.FieldLevel) bool {
	return permissionKeyRegexp.MatchString(fl.Field().String())
}

func isModalType(fl validator.FieldLevel) bool {
	return constants.IsModalType(fl.Field().String())
}
