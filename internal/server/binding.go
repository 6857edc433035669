package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindMessages maps struct field to validation tag to client message.
type bindMessages map[string]map[string]string

func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, resolveBindError(err, messages, fallback))
		return false
	}
	return true
}

// bindURI treats a malformed game id the same as an unknown one.
func bindURI(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		writeError(c, http.StatusNotFound, "game not found")
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		writeError(c, http.StatusBadRequest, resolveBindError(err, nil, "invalid query"))
		return false
	}
	return true
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if rule, ok := textRules[verr.Tag()]; ok {
				if value, isString := verr.Value().(string); isString {
					if _, ruleErr := rule(value); ruleErr != nil {
						return ruleErr.Error()
					}
				}
			}
			if msg, ok := messages[verr.Field()][verr.Tag()]; ok {
				return msg
			}
		}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s has the wrong type", typeErr.Field)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "request body is not valid JSON"
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}
