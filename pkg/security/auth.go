package security

import (
	"errors"
	"os"
	"sync"
	"time"

	"assetdesk/internal/repository"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

var (
	jwtSecretOnce sync.Once
	jwtSecret     []byte
)

// signingSecret resolves JWT_SECRET on first use so test binaries that never
// sign or verify a token do not need the variable set.
func signingSecret() ([]byte, error) {
	jwtSecretOnce.Do(func() {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			// main may not have loaded the env file yet
			_ = godotenv.Load()
			secret = os.Getenv("JWT_SECRET")
		}
		jwtSecret = []byte(secret)
	})

	if len(jwtSecret) == 0 {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}
	return jwtSecret, nil
}

func AuthenticateUser(username, password string, repo *repository.Repository) (*models.User, error) {
	var record models.FlatUserRecord

	query := repo.GoquDBWrapper.
		Select(
			goqu.I("id").As("user_id"),
			"staff_code", "first_name", "last_name", "username", "password_hash",
			"gender", "date_of_birth", "joined_date", "role", "location",
			"is_assigned", "is_disabled",
		).
		From("users").
		Where(goqu.Ex{"username": username, "is_disabled": false})

	found, err := query.Executor().ScanStruct(&record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, bcrypt.ErrMismatchedHashAndPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, err
	}

	user := record.TransformToUser()
	return &user, nil
}

func GenerateJWT(user *models.User) (string, error) {
	secret, err := signingSecret()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"userID":   user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"location": string(user.Location),
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
