package checks

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Aman-CERP/validate/internal/preflight"
)

// smtpTimeout bounds the connection and the greeting.
const smtpTimeout = 10 * time.Second

// smtp connects to the configured mail server and waits for its greeting.
// No mail is sent.
func smtp(dial DialFunc) preflight.ExecFunc {
	return func(ctx context.Context, env *preflight.Env) ([]preflight.Result, error) {
		cfg, err := loadedConfig(env)
		if err != nil {
			return nil, err
		}
		mail := cfg.Mail

		if mail.Transport != "smtp" {
			return []preflight.Result{preflight.OK(GroupMail,
				fmt.Sprintf("Mail transport is '%s', nothing to connect to", mail.Transport))}, nil
		}
		if mail.SMTPHost == "" {
			return []preflight.Result{preflight.Fail(GroupMail, "mail.smtp_host is not set",
				"Set mail.smtp_host in config.yaml")}, nil
		}

		addr := net.JoinHostPort(mail.SMTPHost, strconv.Itoa(mail.SMTPPort))
		ctx, cancel := context.WithTimeout(ctx, smtpTimeout)
		defer cancel()

		conn, err := dial(ctx, "tcp", addr)
		if err != nil {
			return []preflight.Result{preflight.Fail(GroupMail,
				fmt.Sprintf("Cannot connect to SMTP server %s: %v", addr, err),
				"Check mail.smtp_host and mail.smtp_port in config.yaml")}, nil
		}
		defer conn.Close()

		_ = conn.SetDeadline(time.Now().Add(smtpTimeout))
		greeting, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			return []preflight.Result{preflight.Fail(GroupMail,
				fmt.Sprintf("SMTP server %s did not send a greeting: %v", addr, err), "")}, nil
		}
		greeting = strings.TrimSpace(greeting)
		if !strings.HasPrefix(greeting, "220") {
			return []preflight.Result{preflight.Fail(GroupMail,
				fmt.Sprintf("SMTP server %s refused the connection: %s", addr, greeting), "")}, nil
		}
		return []preflight.Result{preflight.OK(GroupMail, fmt.Sprintf("SMTP server %s is reachable", addr))}, nil
	}
}
