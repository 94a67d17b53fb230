package handler

import (
    "errors"
    "io"
    "mime/multipart"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rental-listings/internal/editor"
    "github.com/iliyamo/rental-listings/internal/middleware"
)

// EditorHandler drives the listing editor of the calling operator.
type EditorHandler struct {
    Catalog Catalog
}

func editorOf(c echo.Context) *editor.Workflow { return middleware.CurrentClient(c).Editor }

// Get renders the editor form.
func (h *EditorHandler) Get(c echo.Context) error {
    return c.JSON(http.StatusOK, editorOf(c).View())
}

// New opens a blank draft.
func (h *EditorHandler) New(c echo.Context) error {
    wf := editorOf(c)
    if err := wf.OpenCreate(h.Catalog.Neighborhoods()); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, wf.View())
}

// Edit loads a copy of the listing into the draft.
func (h *EditorHandler) Edit(c echo.Context) error {
    l, ok := h.Catalog.Listing(c.Param("id"))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
    }
    wf := editorOf(c)
    if err := wf.OpenEdit(l, h.Catalog.Neighborhoods()); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, wf.View())
}

// Fields replaces the scalar fields of the draft.
func (h *EditorHandler) Fields(c echo.Context) error {
    var f editor.Fields
    if err := c.Bind(&f); err != nil {
        if errors.Is(err, editor.ErrInvalidField) {
            return fail(c, editor.ErrInvalidField)
        }
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    wf := editorOf(c)
    if err := wf.SetFields(f); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, wf.View())
}

// Images stages the files of the multipart field "images".  Files that fail
// are reported while the others are kept.
func (h *EditorHandler) Images(c echo.Context) error {
    form, err := c.MultipartForm()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart form expected"})
    }
    headers := form.File["images"]
    if len(headers) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no images"})
    }
    uploads := make([]editor.Upload, 0, len(headers))
    for _, fh := range headers {
        uploads = append(uploads, uploadOf(fh))
    }
    wf := editorOf(c)
    if err := wf.StageImages(c.Request().Context(), uploads); err != nil {
        return c.JSON(statusFor(err), echo.Map{"error": err.Error(), "editor": wf.View()})
    }
    return c.JSON(http.StatusOK, wf.View())
}

func uploadOf(fh *multipart.FileHeader) editor.Upload {
    return editor.Upload{
        Name: fh.Filename,
        Open: func() (io.ReadCloser, error) { return fh.Open() },
    }
}

// RemoveImage drops a staged image by index.
func (h *EditorHandler) RemoveImage(c echo.Context) error {
    i, err := strconv.Atoi(c.Param("index"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid index"})
    }
    wf := editorOf(c)
    if err := wf.RemoveImage(i); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, wf.View())
}

// Submit writes the draft: insert when creating, whole-record overwrite
// when editing.
func (h *EditorHandler) Submit(c echo.Context) error {
    wf := editorOf(c)
    l, err := wf.Submit(c.Request().Context())
    if err != nil {
        return c.JSON(statusFor(err), echo.Map{"error": err.Error(), "editor": wf.View()})
    }
    return c.JSON(http.StatusOK, echo.Map{"listing": l, "editor": wf.View()})
}

// Close discards the draft.
func (h *EditorHandler) Close(c echo.Context) error {
    wf := editorOf(c)
    wf.Close()
    return c.JSON(http.StatusOK, wf.View())
}
