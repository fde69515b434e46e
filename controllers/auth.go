package controllers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"os"
	"strings"
	"time"

	"expenseapi/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gofrs/uuid"
)

// Signup creates a tenant and its first user in one transaction.
func (api *API) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Email == "" || req.Password == "" {
		sendError(c, http.StatusBadRequest, "missing-email-or-password")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		sendError(c, http.StatusBadRequest, "invalid-email")
		return
	}

	if len(req.Password) < 8 {
		sendError(c, http.StatusBadRequest, "password-must-be-at-least-8-characters")
		return
	}

	emailPrefix := strings.Split(req.Email, "@")[0]

	slug := strings.ToLower(emailPrefix)
	if req.TenantName != "" {
		slug = strings.Join(strings.Fields(strings.ToLower(req.TenantName)), "-")
	}

	tenantName := req.TenantName
	if tenantName == "" {
		tenantName = slug
	}

	name := req.Name
	if name == "" {
		name = emailPrefix
	}

	var exists bool
	if err := api.Db.QueryRow("SELECT EXISTS(SELECT 1 FROM tenants WHERE slug = $1)", slug).Scan(&exists); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if exists {
		sendError(c, http.StatusConflict, "tenant-already-exist")
		return
	}

	if err := api.Db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", req.Email).Scan(&exists); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if exists {
		sendError(c, http.StatusConflict, "email-already-exist")
		return
	}

	tx, err := api.Db.Begin()
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	defer tx.Rollback()

	tenantId := uuid.Must(uuid.NewV4()).String()
	userId := uuid.Must(uuid.NewV4()).String()

	if _, err := tx.Exec(`
		INSERT INTO tenants (id, name, slug, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, true, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, tenantId, tenantName, slug); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := tx.Exec(`
		INSERT INTO users (id, tenant_id, email, name, password, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, crypt($5, gen_salt('bf', 8)), 'USD', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, userId, tenantId, req.Email, name, req.Password); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err := tx.Commit(); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	authResponse := models.AuthResponse{
		User: models.User{
			Id:         userId,
			TenantId:   tenantId,
			TenantName: tenantName,
			TenantSlug: slug,
			Email:      req.Email,
			Name:       name,
			Currency:   "USD",
		},
	}

	authResponse.Token, err = api.GenerateToken(authResponse)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, authResponse)
}

func (api *API) Authenticate(c *gin.Context) {
	var authRequest models.AuthRequest
	if err := c.ShouldBindJSON(&authRequest); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if authRequest.Email == "" || authRequest.Password == "" {
		sendError(c, http.StatusBadRequest, "missing-email-or-password")
		return
	}

	q := `
		SELECT u.id, u.tenant_id, u.email, u.name, u.currency, u.created_at, u.updated_at,
			t.name, t.slug, t.is_active, u.password = crypt($2, u.password)
		FROM users u
		JOIN tenants t ON u.tenant_id = t.id
		WHERE u.email = $1`
	stms := []interface{}{authRequest.Email, authRequest.Password}

	if _, err := uuid.FromString(authRequest.TenantId); err == nil {
		q += " AND u.tenant_id = $3"
		stms = append(stms, authRequest.TenantId)
	}

	var authResponse models.AuthResponse
	var active, correct bool

	err := api.Db.QueryRow(q, stms...).Scan(&authResponse.User.Id, &authResponse.User.TenantId,
		&authResponse.User.Email, &authResponse.User.Name, &authResponse.User.Currency,
		&authResponse.User.CreatedAt, &authResponse.User.UpdatedAt,
		&authResponse.User.TenantName, &authResponse.User.TenantSlug, &active, &correct)

	if err != nil {
		if err == sql.ErrNoRows {
			sendError(c, http.StatusUnauthorized, "invalid-email-or-password")
			return
		}

		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if !correct {
		sendError(c, http.StatusUnauthorized, "invalid-email-or-password")
		return
	}

	if !active {
		sendError(c, http.StatusForbidden, "tenant-inactive")
		return
	}

	sessPayload, _ := api.Redis.Get(context.Background(), "auth:"+authRequest.Email).Result()
	if sessPayload != "" {
		log.Println("removing old session..")
		api.Redis.Del(context.Background(), sessPayload)
	}

	authResponse.Token, err = api.GenerateToken(authResponse)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, authResponse)
}

func (api *API) CheckSession(c *gin.Context) {
	u := ParsePayload(c)

	err := api.Redis.Get(context.Background(), "auth:"+u.Email).Err()
	if err != nil {
		if err == redis.Nil {
			sendError(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, genericOK)
}

func (api *API) RefreshSession(c *gin.Context) {
	u := ParsePayload(c)

	refreshPayload, err := api.Redis.Get(context.Background(), u.RefreshToken).Result()
	if err != nil {
		if err == redis.Nil {
			sendError(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var authResponse models.AuthResponse

	if err := json.Unmarshal([]byte(refreshPayload), &authResponse); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	err = api.Redis.Get(context.Background(), "auth:"+u.Email).Err()
	if err != nil {
		if err == redis.Nil {
			sendError(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	authResponse.Token, err = api.GenerateToken(authResponse)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, authResponse)
}

func (api *API) Logout(c *gin.Context) {
	u := ParsePayload(c)
	token, _ := c.Cookie("token")
	tokenString := strings.Replace(token, "Bearer ", "", -1)

	err := api.Redis.Del(context.Background(), tokenString).Err()
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	err = api.Redis.Del(context.Background(), u.RefreshToken).Err()
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	err = api.Redis.Del(context.Background(), "auth:"+u.Email).Err()
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, genericOK)
}

func (api *API) GenerateToken(resp models.AuthResponse) (string, error) {

	key, err := base64.StdEncoding.DecodeString(os.Getenv("SESSION_KEY"))
	if err != nil {
		log.Println(err)
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(resp.Id))
	mac.Write(key)

	sum := mac.Sum(nil)

	sEnc := base64.StdEncoding.EncodeToString(sum)
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["user-id"] = resp.Id
	claims["tenant-id"] = resp.TenantId
	claims["session-id"] = sEnc
	claims["expires"] = 1800
	refreshToken, err := token.SignedString(key)
	if err != nil {
		log.Println(err)
		return "", err
	}
	claims["refresh-token"] = refreshToken
	claims["user"] = resp.User

	redisPayload, _ := json.Marshal(claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		log.Println(err)
		return "", err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data := map[string]string{
		tokenString:          string(redisPayload),
		refreshToken:         string(redisPayload),
		"auth:" + resp.Email: tokenString,
	}

	for k, v := range data {
		err = api.Redis.Set(ctx, k, v, 30*time.Minute).Err()
		if err != nil {
			log.Println(err)
			return "", err
		}

	}

	auth := fmt.Sprintf("Bearer %s", tokenString)

	return auth, nil
}
