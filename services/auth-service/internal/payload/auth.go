package payload

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	TargetUI string `json:"targetUI" validate:"omitempty,max=32"`
}

type LoginResponse struct {
	JWT string `json:"jwt"`
}

type RegisterRequest struct {
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	FirstName       string `json:"fname"           validate:"required,max=100"`
	LastName        string `json:"lname"           validate:"required,max=100"`
}

// CreatedResponse acknowledges a created resource.
type CreatedResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// OAuthCallbackRequest carries the provider callback. A missing code is reported by the
// usecase with a provider specific status, so it is not validated here.
type OAuthCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
	Token    string `json:"token"    validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
