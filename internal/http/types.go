package httpapp

type msgResponse struct {
	Msg string `json:"msg"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type fieldError struct {
	Param string `json:"param,omitempty"`
	Msg   string `json:"msg"`
}

type errorsResponse struct {
	Errors []fieldError `json:"errors"`
}

type rateLimitResponse struct {
	Msg        string `json:"msg"`
	RetryAfter int    `json:"retry_after"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required" msg:"Name is required"`
	Email    string `json:"email" validate:"required,email" msg:"Please include a valid email"`
	Password string `json:"password" validate:"required,min=6,max=72" msg:"Please enter a password with 6 or more characters" msg_max:"Password must be 72 characters or fewer"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Please include a valid email"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

// textRequest is the body of post and comment creation.
type textRequest struct {
	Text string `json:"text" validate:"required" msg:"Text is required"`
}
