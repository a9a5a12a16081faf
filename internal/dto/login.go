package dto

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

type VerifyAccountRequest struct {
	Code string `json:"otp"`
}
