package email

import (
	"fmt"
	"strings"
)

// Template is a subject/body pair with [TOKEN] placeholders.
type Template struct {
	Subject string
	Body    string
}

// Built-in templates, keyed "<audience>_<trigger>". Audience is who receives
// the mail; trigger is what kind of erasure ran.
var defaultTemplates = map[string]Template{
	"user_user": {
		Subject: "Your account data has been deleted",
		Body: "Hello [NAME],\n\n" +
			"As you requested on [DATE], your personal data has been removed from our systems.\n\n" +
			"What was deleted:\n[ACTIONS]\n\n" +
			"This action is irreversible. An audit record of the deletion has been kept as required by law.\n",
	},
	"user_admin": {
		Subject: "Your account data has been deleted by an administrator",
		Body: "Hello [NAME],\n\n" +
			"On [DATE] an administrator removed your personal data from our systems.\n\n" +
			"What was deleted:\n[ACTIONS]\n",
	},
	"user_lifecycle": {
		Subject: "Your inactive account has been removed",
		Body: "Hello [NAME],\n\n" +
			"Because your account had been inactive beyond our retention period, your personal data was removed on [DATE].\n\n" +
			"What was deleted:\n[ACTIONS]\n",
	},
	"user_warnlifecycle": {
		Subject: "Your account is about to be removed",
		Body: "Hello [NAME],\n\n" +
			"Your account [USERNAME] has been inactive for a long time. Unless you log in again, " +
			"your personal data will be permanently deleted under our data retention policy.\n",
	},
	"admin_user": {
		Subject: "[SITE] user data deletion: [USERNAME]",
		Body: "User [USERNAME] <[EMAIL]> deleted their personal data on [DATE] from [IP].\n\n" +
			"Actions taken:\n[ACTIONS]\n",
	},
	"admin_admin": {
		Subject: "[SITE] admin data deletion: [USERNAME]",
		Body: "The personal data of user [USERNAME] <[EMAIL]> was deleted by an administrator on [DATE].\n\n" +
			"Actions taken:\n[ACTIONS]\n",
	},
	"admin_lifecycle": {
		Subject: "[SITE] lifecycle data deletion: [USERNAME]",
		Body: "The dormant account [USERNAME] <[EMAIL]> was removed by the lifecycle policy on [DATE].\n\n" +
			"Actions taken:\n[ACTIONS]\n",
	},
}

// Render substitutes tokens into the named template. Token keys are bare
// names ("NAME"); the template references them as [NAME].
func Render(key string, tokens map[string]string) (Message, error) {
	tpl, ok := defaultTemplates[key]
	if !ok {
		return Message{}, fmt.Errorf("unknown email template %q", key)
	}

	pairs := make([]string, 0, len(tokens)*2)
	for name, value := range tokens {
		pairs = append(pairs, "["+name+"]", value)
	}
	replacer := strings.NewReplacer(pairs...)

	return Message{
		Subject: replacer.Replace(tpl.Subject),
		Body:    replacer.Replace(tpl.Body),
	}, nil
}
