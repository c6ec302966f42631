package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/fotoescola/apps/api/echo"
	"github.com/trezcool/fotoescola/core/contact"
)

func Test_contactApi(t *testing.T) {
	app := setup(t)

	msg := contact.Message{
		Name:    "Carlos Silva",
		Email:   "Carlos@Email.com",
		Phone:   "(11) 98765-4321",
		Subject: "Turmas de fim de semana",
		Message: "Vocês têm turmas aos sábados?",
	}
	required := "este campo é obrigatório"

	tests := []struct {
		httpTest
		wantSent int
	}{
		{
			httpTest: httpTest{
				name: "required fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
				wantData: []byte(`{"name":"` + required + `","email":"` + required + `","subject":"` + required + `","message":"` + required + `"}`),
			},
		},
		{
			httpTest: httpTest{name: "invalid email", body: []byte(`{"name":"Carlos","email":"carlos","subject":"Oi","message":"Oi"}`), wantCode: http.StatusBadRequest},
		},
		{
			httpTest: httpTest{
				name: "sent", body: marchallObj(t, msg),
				wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Mensagem enviada! Responderemos em breve."}),
			},
			wantSent: 2,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/contact"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			app.mailSvc.Reset()

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)

			sent := app.mailSvc.SentMessages()
			require.Len(t, sent, tt.wantSent)
			if tt.wantSent == 0 {
				return
			}

			inbox, confirmation := sent[0], sent[1]
			assert.Equal(t, app.conf.ContactEmail(), inbox.To[0])
			require.NotNil(t, inbox.ReplyTo)
			assert.Equal(t, "carlos@email.com", inbox.ReplyTo.Address)
			assert.Contains(t, inbox.TextContent, "11987654321")
			assert.Contains(t, inbox.TextContent, msg.Message)

			assert.Equal(t, "carlos@email.com", confirmation.To[0].Address)
			assert.Contains(t, confirmation.TextContent, "Carlos Silva")
		})
	}
}
