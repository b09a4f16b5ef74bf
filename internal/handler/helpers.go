package handler

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/model/requestresponse"
	"auth-web-server/internal/util"
	"encoding/json"
	"net/http"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		util.HandleError(w, "invalid request body", 400)
		return err
	}
	return nil
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	util.HandleError(w, message, statusCode)
}

func toUserData(user *model.User) requestresponse.UserData {
	return requestresponse.UserData{
		UUID:         user.UUID,
		Username:     user.Username,
		Email:        user.Email,
		AuthProvider: user.AuthProvider,
		LastLogin:    user.LastLogin,
		CreatedAt:    user.CreatedAt,
	}
}
