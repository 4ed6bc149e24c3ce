package model

import "time"

// Examiner represents an examiner (teacher) user who authors vivas and
// monitors live sessions.
type Examiner struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ExaminerLoginRequest is the payload for examiner authentication.
type ExaminerLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// ExaminerLoginResponse is returned after successful examiner login.
type ExaminerLoginResponse struct {
	Token    string   `json:"token"`
	Examiner Examiner `json:"examiner"`
}
