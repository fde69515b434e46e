package controllers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"expenseapi/genai"
	"expenseapi/models"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gopkg.in/gomail.v2"
)

var (
	dateFormat = "2006-01-02"
	s1         = `
	{
		"border": [
			{
			"type": "left",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "top",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "right",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "bottom",
			"color": "#000000",
			"style": 1
			}
		],
		"fill": {
			"type": "pattern",
			"pattern": 1,
			"color": ["#96b753"]
		},
		"font": {
			"bold": true
		},
		"alignment": {
			"shrink_to_fit": true,
			"horizontal": "center"
		}
	}
	`
	s2 = `
	{
		"border": [
			{
			"type": "left",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "top",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "right",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "bottom",
			"color": "#000000",
			"style": 1
			}
		],
		"fill": {
			"type": "pattern",
			"pattern": 1
		},
		"alignment": {
			"shrink_to_fit": true
		}
	}
	`
)

var genericOK = map[string]string{"message": "ok"}

type GenericResponse struct {
	Message string `json:"message"`
}

type API struct {
	Db    *sql.DB
	Redis *redis.Client
	AI    genai.Generator
}

func NewAPI() *API {
	return &API{}
}

func sendError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{
		"message": msg,
	})
}

func (api *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (api *API) GetTotal(query string, statement []interface{}) (total int32, err error) {
	err = api.Db.QueryRow(query, statement...).Scan(&total)
	return
}

func ParsePayload(c *gin.Context) (redis models.RedisPayload) {
	payload := c.Request.Header.Get("payload")

	err := json.Unmarshal([]byte(payload), &redis)
	if err != nil {
		log.Println(err)
	}

	return
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func sendEmail(to, subject, body string) error {
	emailSMTPPort := os.Getenv("EMAIL_SMTP_PORT")
	emailSMTPServer := os.Getenv("EMAIL_SMTP_SERVER")
	emailSMTPUsername := os.Getenv("EMAIL_SMTP_USERNAME")
	emailSMTPPassword := os.Getenv("EMAIL_SMTP_PASSWORD")
	emailFrom := os.Getenv("EMAIL_MESSAGE_FROM")

	mailer := gomail.NewMessage()
	mailer.SetHeader("From", emailFrom)
	mailer.SetHeader("To", to)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/plain", body)

	smtpPort, err := strconv.Atoi(emailSMTPPort)
	if err != nil {
		log.Println(err)
		return err
	}

	dialer := gomail.NewDialer(
		emailSMTPServer,
		smtpPort,
		emailSMTPUsername,
		emailSMTPPassword,
	)

	t := time.Now()
	err = dialer.DialAndSend(mailer)
	if err != nil {
		log.Println(err)
	}

	log.Println(time.Since(t))

	return err
}
