package middlewares

// gin context keys (gin.Context.Set/Get take strings)
const (
	CtxRequestID = "request_id"
	CtxUserIDKey = "auth.userID"
	CtxEmailKey  = "auth.email"
	CtxRoleKey   = "auth.role"
)
