package chat

import (
	"fmt"
	"strings"
	"time"
)

// adminUsername is the reserved name that triggers the admin password
// challenge during the handshake.
const adminUsername = "admin"

// Handshake prompts and rejections. These are protocol text: clients key
// off them, so they must not change casually.
const (
	promptPassword      = "Please enter password:"
	promptUsername      = "Enter your username:"
	promptAdminPassword = "Enter admin password:"

	rejectPassword      = "Wrong password."
	rejectAdminPassword = "Incorrect admin password."
	rejectBanned        = "You are banned from this server."
	rejectNameTaken     = "Username already taken."
)

const (
	noticeMuted          = "You are muted and cannot send public messages."
	noticeMutedByAdmin   = "You have been muted by admin."
	noticeUnmutedByAdmin = "You have been unmuted by admin."
	noticeBannedByAdmin  = "You are banned by admin."
	noticeBannedByWarns  = "You are banned after 4 warnings."
)

const (
	usagePM     = "Usage: /pm username message"
	usageSend   = "Usage: /send filename base64data"
	usageDown   = "Usage: /down filename"
	usageBan    = "Usage: /ban username"
	usageWar    = "Usage: /war username"
	usageMute   = "Usage: /mute username"
	usageUnmute = "Usage: /unmute username"
)

func formatWelcome(name string) string {
	return fmt.Sprintf("Welcome %s! Type /help for commands.", name)
}

func formatJoined(name string) string {
	return fmt.Sprintf("User %s joined the chat.", name)
}

func formatLeft(name string) string {
	return fmt.Sprintf("User %s left the chat.", name)
}

func formatRoster(names []string) string {
	return fmt.Sprintf("Online users (%d): %s", len(names), strings.Join(names, ", "))
}

func formatNotFound(name string) string {
	return fmt.Sprintf("User %s not found.", name)
}

func formatPrivate(from, to, text string) string {
	return fmt.Sprintf("[PM] %s -> %s: %s", from, to, text)
}

func formatPublic(ts time.Time, from, text string) string {
	return fmt.Sprintf("[%s] %s: %s", ts.Format("15:04:05"), from, text)
}

func formatEcho(ts time.Time, text string) string {
	return fmt.Sprintf("[%s] You: %s", ts.Format("15:04:05"), text)
}

func formatWarning(count int) string {
	return fmt.Sprintf("Warning (%d/%d) from admin.", count, WarnLimit)
}

func formatBanBroadcast(name string) string {
	return fmt.Sprintf("User %s has been banned by admin.", name)
}

func formatWarnBanBroadcast(name string) string {
	return fmt.Sprintf("User %s banned after %d warnings.", name, WarnLimit)
}

func formatFilePayload(name, b64 string) string {
	return fmt.Sprintf("[FILE] %s %s", name, b64)
}

var baseHelp = []string{
	"Available commands:",
	"/pm username message  - Private message",
	"/send filename base64 - Upload file",
	"/down filename        - Download file",
	"/list                 - Show online users (to admin only)",
	"/list show            - Broadcast online users to all",
	"/help                 - Show this help message",
}

var adminHelp = []string{
	"Admin commands:",
	"/ban username         - Ban user",
	"/war username         - Warn user (4 warns = ban)",
	"/mute username        - Mute user",
	"/unmute username      - Unmute user",
}

func formatHelp(isAdmin bool) string {
	lines := baseHelp
	if isAdmin {
		lines = append(append([]string{}, baseHelp...), adminHelp...)
	}
	return strings.Join(lines, "\n")
}
