package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/access-control/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AppError", func() {
	It("is found through wrapping", func() {
		err := fmt.Errorf("assign roles: %w", internal.ErrRoleNotFound)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusNotFound))
		Expect(appErr.Code).To(Equal(internal.ErrCodeRoleNotFound))
	})

	It("renders the error envelope without the cause", func() {
		status, body := internal.NewInternalError("Internal server error", errors.New("pq: relation missing")).ToHTTPResponse()
		Expect(status).To(Equal(http.StatusInternalServerError))

		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(MatchJSON(`{"error":{"type":"INTERNAL_ERROR","code":"INTERNAL_ERROR","message":"Internal server error"}}`))
	})

	It("carries field details for validation failures", func() {
		_, body := internal.NewValidationFieldError("beforeCursor", "cannot be combined", internal.ErrCodeCursorConflict).ToHTTPResponse()
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(MatchJSON(`{"error":{
			"type":"VALIDATION_ERROR","code":"VALIDATION_FAILED","message":"Validation failed",
			"details":{"errors":[{"field":"beforeCursor","message":"cannot be combined","code":"CURSOR_CONFLICT"}]}}}`))
	})

	It("uses one message for every authentication failure", func() {
		Expect(internal.ErrInvalidCredentials.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(internal.ErrAuthenticationRequired.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(internal.ErrInsufficientAbilities.StatusCode).To(Equal(http.StatusForbidden))
	})
})
