package auth

// Claims representa la identidad ya verificada del caller.
// Role viaja como string para no acoplar ports con domain/users.
type Claims struct {
	UserID string
	Email  string
	Role   string
}
