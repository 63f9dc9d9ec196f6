package httpapi

import (
	"net/http"
	"time"

	"github.com/MrEthical07/linkauth"
	"github.com/MrEthical07/linkauth/middleware"
	"github.com/gin-gonic/gin"
)

// FilteredUser is the public view of an account. The password hash never
// leaves the server.
type FilteredUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type userData struct {
	User FilteredUser `json:"user"`
}

type userResponse struct {
	Status string   `json:"status"`
	Data   userData `json:"data"`
}

type tokenResponse struct {
	Status      string `json:"status"`
	AccessToken string `json:"access_token"`
}

// FilterUser strips u down to its public fields.
func FilterUser(u linkauth.User) FilteredUser {
	return FilteredUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func fail(c *gin.Context, code int, message string) {
	status := "fail"
	if code >= http.StatusInternalServerError {
		status = "error"
	}
	c.AbortWithStatusJSON(code, middleware.ErrorBody{Status: status, Message: message})
}

// failWith maps a manager error through the shared taxonomy.
func failWith(c *gin.Context, err error) {
	code, body := middleware.NewErrorBody(err)
	c.AbortWithStatusJSON(code, body)
}
