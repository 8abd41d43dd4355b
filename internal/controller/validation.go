package controller

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidation makes validation errors report JSON field names instead of Go
// struct field names.
func RegisterValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)

		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")

			if name == "-" {
				return ""
			}

			return name
		})
	})
}

func validationDetails(err error) []gin.H {
	var fieldErrors validator.ValidationErrors

	if !errors.As(err, &fieldErrors) {
		return []gin.H{{"message": "malformed request body"}}
	}

	details := make([]gin.H, 0, len(fieldErrors))

	for _, fe := range fieldErrors {
		details = append(details, gin.H{
			"field": fe.Field(),
			"rule":  fe.Tag(),
			"param": fe.Param(),
		})
	}

	return details
}

func invalidInput(c *gin.Context, err error) {
	c.JSON(400, gin.H{"error": "Invalid input", "details": validationDetails(err)})
}

func internalError(c *gin.Context) {
	c.JSON(500, gin.H{"error": "Internal server error"})
}
