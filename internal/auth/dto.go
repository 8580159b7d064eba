package auth

import (
	"github.com/mouhcinecherqui/devtech-sub000/internal/core/common/validation"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d *LoginDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("email", d.Email).Required()
	validator.Field("password", d.Password).Required().MinLength(8)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token"`
}
