package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, response any) {
	body, marshalErr := json.Marshal(response)
	if marshalErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"error": %q}`, marshalErr.Error())
		return
	}
	w.WriteHeader(status)
	w.Write(body)
}

// Success writes the fixed body the dashboard client expects from the
// processing endpoints.
func Success(w http.ResponseWriter) {
	JSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}

func Error(w http.ResponseWriter, status int, message string, err error) {
	response := struct {
		Error   string `json:"error"`
		Details string `json:"details,omitempty"`
	}{
		Error: message,
	}
	if err != nil {
		response.Details = err.Error()
	}
	JSON(w, status, response)
}
