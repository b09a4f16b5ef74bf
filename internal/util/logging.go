package util

import (
	"auth-web-server/internal/model/requestresponse"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// LogError пишет ошибку в лог и возвращает её обёрнутой для вызывающего
func LogError(message string, err error) error {
	log.Printf("%s: %v", message, err)
	return fmt.Errorf("%s: %w", message, err)
}

// HandleError отвечает клиенту ошибкой в том же конверте, что и хэндлеры
func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(requestresponse.ErrorResponse{
		Error: requestresponse.ErrorDetail{
			Code: statusCode,
			Text: message,
		},
	})
}
