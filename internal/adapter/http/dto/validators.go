package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Base58 alphabet, 32 to 44 characters, as used for Solana public keys.
var solAddressRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("sol_address", validateSolAddress)
	}
}

func validateSolAddress(fl validator.FieldLevel) bool {
	return solAddressRe.MatchString(fl.Field().String())
}
