package model

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type AddFavoriteRequest struct {
	MovieID int64 `json:"movieId"`
}

type FavoriteStatus struct {
	IsFavorited bool `json:"isFavorited"`
}

type CreatedResource struct {
	ID int64 `json:"id"`
}
