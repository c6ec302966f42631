package core

import (
	"io/fs"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfs "github.com/trezcool/fotoescola/fs"
)

func TestEmailMessage_Render(t *testing.T) {
	conf := NewTestConfig()

	tests := []struct {
		name     string
		data     map[string]string
		wantText []string
	}{
		{
			name:     "contact",
			data:     map[string]string{"Name": "Carlos Silva", "Email": "carlos@email.com", "Phone": "11987654321", "Subject": "Turmas", "Message": "Vocês têm turmas aos sábados?"},
			wantText: []string{"Carlos Silva", "11987654321", "Vocês têm turmas aos sábados?"},
		},
		{
			name:     "contact_confirmation",
			data:     map[string]string{"Name": "Carlos Silva", "Subject": "Turmas"},
			wantText: []string{"Carlos Silva", "Turmas"},
		},
		{
			name:     "invoice",
			data:     map[string]string{"PayerName": "Carlos Silva", "Number": "NFS-202612345", "IssueDate": "18/10/2026", "Amount": "R$ 990,00", "Receipt": "RECIBO"},
			wantText: []string{"Carlos Silva", "NFS-202612345", "R$ 990,00", "RECIBO"},
		},
		{
			name:     "password_reset",
			data:     map[string]string{"Name": "Ana", "UID": "dWlk", "Token": "abc-123"},
			wantText: []string{"Ana", "dWlk", "abc-123", conf.FrontendBaseURL},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &EmailMessage{TemplateName: tt.name, TemplateData: tt.data}
			require.NoError(t, msg.Render(conf))

			assert.True(t, msg.HasContent())
			assert.NotEmpty(t, msg.HTMLContent)
			assert.Contains(t, msg.TextContent, conf.AppName)
			for _, want := range tt.wantText {
				assert.Contains(t, msg.TextContent, want)
			}
		})
	}
}

func TestParseTemplates(t *testing.T) {
	entries, err := fs.ReadDir(appfs.FS, tmplDir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "_base.txt")
	assert.Contains(t, names, "_base.gohtml")

	require.NoError(t, parseTemplates(true))
	for _, name := range names {
		if strings.HasPrefix(name, "_") {
			continue
		}
		msg := EmailMessage{TemplateName: strings.TrimSuffix(name, path.Ext(name))}
		_, ok := msg.getTemplate(path.Ext(name))
		assert.True(t, ok, name)
	}
}
