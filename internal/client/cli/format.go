package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

// maxPreview is how many runes of content a listing shows.
const maxPreview = 40

func printNotes(w io.Writer, notes []*models.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notes found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFAV\tUPDATED\tTITLE\tPREVIEW")
	for _, n := range notes {
		fav := ""
		if n.IsFavorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			n.ID, fav, n.UpdatedAt.Local().Format(time.DateTime), n.Title, preview(n.Content))
	}
	_ = tw.Flush()
}

func printNote(w io.Writer, n *models.Note) {
	fav := "no"
	if n.IsFavorite {
		fav = "yes"
	}
	fmt.Fprintf(w, "ID:       %s\n", n.ID)
	fmt.Fprintf(w, "Title:    %s\n", n.Title)
	fmt.Fprintf(w, "Favorite: %s\n", fav)
	fmt.Fprintf(w, "Created:  %s\n", n.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Updated:  %s\n", n.UpdatedAt.Local().Format(time.DateTime))
	fmt.Fprintln(w)
	fmt.Fprintln(w, n.Content)
}

func printUser(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "Email:    %s\n", u.Email)
	fmt.Fprintf(w, "Username: %s\n", u.Username)
	fmt.Fprintf(w, "Name:     %s\n", strings.TrimSpace(u.FirstName+" "+u.LastName))
	fmt.Fprintf(w, "Joined:   %s\n", u.DateJoined.Local().Format(time.DateOnly))
}

func printExport(w io.Writer, e *models.Export) {
	fmt.Fprintf(w, "Export %s (%s), link valid until %s:\n%s\n",
		e.Key, e.Format, e.ExpiresAt.Local().Format(time.DateTime), e.URL)
}

func preview(content string) string {
	line, _, _ := strings.Cut(content, "\n")
	r := []rune(line)
	if len(r) > maxPreview {
		return string(r[:maxPreview]) + "..."
	}
	return line
}

// describeError turns client errors into something a user can act on.
func describeError(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return "session expired or credentials rejected, please log in again"
	case errors.Is(err, client.ErrNotFound):
		return "note not found"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.As(err, &apiErr):
		if len(apiErr.Fields) == 0 {
			return apiErr.Message
		}
		keys := make([]string, 0, len(apiErr.Fields))
		for k := range apiErr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+apiErr.Fields[k])
		}
		return apiErr.Message + " (" + strings.Join(parts, ", ") + ")"
	default:
		return err.Error()
	}
}
