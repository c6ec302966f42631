package appfs

import "embed"

// FS holds the SQL migrations and the email/invoice templates shipped with the binary.
//go:embed migrations assets assets/templates/email/_base.txt assets/templates/email/_base.gohtml
var FS embed.FS
