package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrvaldes/biblioteca/internal/database/catalog"
	"github.com/mrvaldes/biblioteca/internal/entities"
)

// WriterRequest is the write payload for writers.
type WriterRequest struct {
	Name string `json:"name" binding:"required"`
}

// WriterResponse embeds the writer's books, mirroring the original
// representation.
type WriterResponse struct {
	ID    uint           `json:"id"`
	Name  string         `json:"name"`
	Books []BookResponse `json:"books"`
}

func buildWriterResponse(writer *entities.Writer) WriterResponse {
	books := make([]BookResponse, 0, len(writer.Books))
	for i := range writer.Books {
		book := writer.Books[i]
		books = append(books, BookResponse{
			ID:         book.ID,
			Title:      book.Title,
			WriterName: writer.Name,
		})
	}
	return WriterResponse{ID: writer.ID, Name: writer.Name, Books: books}
}

// WritersController handles CRUD for writers.
type WritersController struct {
	catalog *catalog.Repository
}

// NewWritersController creates a new WritersController.
func NewWritersController(catalogRepo *catalog.Repository) *WritersController {
	return &WritersController{catalog: catalogRepo}
}

// List returns all writers with their books.
func (wc *WritersController) List(c *gin.Context) {
	writers, err := wc.catalog.ListWriters()
	if err != nil {
		respondInternalError(c, err, "list writers")
		return
	}
	out := make([]WriterResponse, 0, len(writers))
	for i := range writers {
		out = append(out, buildWriterResponse(&writers[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get returns a single writer with their books.
func (wc *WritersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	writer, err := wc.catalog.GetWriterByID(id)
	if err != nil {
		handleRepoError(c, err, "writer")
		return
	}
	c.JSON(http.StatusOK, buildWriterResponse(writer))
}

// Create registers a new writer.
func (wc *WritersController) Create(c *gin.Context) {
	var req WriterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	writer := &entities.Writer{Name: req.Name}
	if err := wc.catalog.CreateWriter(writer); err != nil {
		handleRepoError(c, err, "writer")
		return
	}
	respondCreated(c, buildWriterResponse(writer))
}

// Update renames a writer.
func (wc *WritersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	writer, err := wc.catalog.GetWriterByID(id)
	if err != nil {
		handleRepoError(c, err, "writer")
		return
	}

	var req WriterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	writer.Name = req.Name
	if err := wc.catalog.UpdateWriter(writer); err != nil {
		handleRepoError(c, err, "writer")
		return
	}
	c.JSON(http.StatusOK, buildWriterResponse(writer))
}

// Delete removes a writer, cascading to their books and those books' loans.
func (wc *WritersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := wc.catalog.DeleteWriter(id); err != nil {
		handleRepoError(c, err, "writer")
		return
	}
	c.Status(http.StatusNoContent)
}
