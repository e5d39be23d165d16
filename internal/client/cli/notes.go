package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

var errNoID = errors.New("note id is required")

// noteID takes the id from args or, failing that, asks for it.
func (a *App) noteID(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	id, err := getSimpleText(a.reader, "Enter note ID", a.out)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errNoID
	}
	return id, nil
}

// formatArg returns the optional second argument, md by default.
func formatArg(args []string) (string, error) {
	if len(args) < 2 {
		return "md", nil
	}
	switch f := strings.ToLower(args[1]); f {
	case "md", "txt":
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q, use md or txt", args[1])
	}
}

func (a *App) List(ctx context.Context, args []string) error {
	notes, err := a.noteService.List(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	printNotes(a.out, notes)
	return nil
}

func (a *App) Favorites(ctx context.Context) error {
	notes, err := a.noteService.Favorites(ctx)
	if err != nil {
		return err
	}
	printNotes(a.out, notes)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.noteID(args)
	if err != nil {
		return err
	}
	note, err := a.noteService.Get(ctx, id)
	if err != nil {
		return err
	}
	printNote(a.out, note)
	return nil
}

func (a *App) Add(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return err
	}
	content, err := getMultiline(a.reader, "Enter content", a.out)
	if err != nil {
		return err
	}
	fav, err := confirm(a.reader, "Mark as favorite?", a.out)
	if err != nil {
		return err
	}

	note, err := a.noteService.Add(ctx, models.NewNote{Title: title, Content: content, IsFavorite: fav})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Note created: %s\n", note.ID)
	return nil
}

// Edit shows the current note and asks for replacements. Empty answers keep
// the current value, so only changed fields are sent.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.noteID(args)
	if err != nil {
		return err
	}
	note, err := a.noteService.Get(ctx, id)
	if err != nil {
		return err
	}
	printNote(a.out, note)

	var upd models.NoteUpdate

	title, err := getSimpleText(a.reader, "New title (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if title != "" && title != note.Title {
		upd.Title = &title
	}

	content, err := getMultiline(a.reader, "New content (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if content != "" && content != note.Content {
		upd.Content = &content
	}

	updated, err := a.noteService.Edit(ctx, id, upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Note updated at %s\n", updated.UpdatedAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.noteID(args)
	if err != nil {
		return err
	}
	ok, err := confirm(a.reader, fmt.Sprintf("Delete note %s?", id), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if err := a.noteService.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Note deleted")
	return nil
}

func (a *App) ToggleFavorite(ctx context.Context, args []string) error {
	id, err := a.noteID(args)
	if err != nil {
		return err
	}
	_, msg, err := a.noteService.ToggleFavorite(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	id, err := a.noteID(args)
	if err != nil {
		return err
	}
	format, err := formatArg(args)
	if err != nil {
		return err
	}

	path, err := a.noteService.Download(ctx, id, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", path)
	return nil
}

// Export uploads a rendered copy to object storage, prints the temporary
// link and offers to save a local copy through it.
func (a *App) Export(ctx context.Context, args []string) error {
	id, err := a.noteID(args)
	if err != nil {
		return err
	}
	format, err := formatArg(args)
	if err != nil {
		return err
	}

	e, err := a.noteService.Export(ctx, id, format)
	if err != nil {
		return err
	}
	printExport(a.out, e)

	save, err := confirm(a.reader, "Save a local copy?", a.out)
	if err != nil || !save {
		return err
	}
	path, err := a.noteService.FetchExport(ctx, e)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", path)
	return nil
}

func (a *App) Exports(ctx context.Context, args []string) error {
	id, err := a.noteID(args)
	if err != nil {
		return err
	}
	list, err := a.noteService.Exports(ctx, id)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No exports yet")
		return nil
	}
	for _, e := range list {
		printExport(a.out, e)
	}
	return nil
}
