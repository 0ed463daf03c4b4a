package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrvaldes/biblioteca/internal/database/catalog"
	"github.com/mrvaldes/biblioteca/internal/entities"
)

// BookRequest is the write payload for books. Exactly one of WriterID or
// WriterName must be supplied; a free-text name reuses an existing writer by
// exact match or creates one.
type BookRequest struct {
	Title      string `json:"title" binding:"required"`
	WriterID   uint   `json:"writer_id"`
	WriterName string `json:"writer_name"`
}

// BookResponse mirrors the original book representation.
type BookResponse struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	WriterName string `json:"writer_name"`
}

func buildBookResponse(book *entities.Book) BookResponse {
	return BookResponse{
		ID:         book.ID,
		Title:      book.Title,
		WriterName: book.Writer.Name,
	}
}

// BooksController handles CRUD for books.
type BooksController struct {
	catalog *catalog.Repository
}

// NewBooksController creates a new BooksController.
func NewBooksController(catalogRepo *catalog.Repository) *BooksController {
	return &BooksController{catalog: catalogRepo}
}

// List returns all books.
func (bc *BooksController) List(c *gin.Context) {
	books, err := bc.catalog.ListBooks()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	out := make([]BookResponse, 0, len(books))
	for i := range books {
		out = append(out, buildBookResponse(&books[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get returns a single book.
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.catalog.GetBookByID(id)
	if err != nil {
		handleRepoError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, buildBookResponse(book))
}

// Create registers a new book, resolving the writer by reference or by name.
func (bc *BooksController) Create(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	writer, ok := bc.resolveWriter(c, &req)
	if !ok {
		return
	}

	book := &entities.Book{Title: req.Title, WriterID: writer.ID}
	if err := bc.catalog.CreateBook(book); err != nil {
		handleRepoError(c, err, "book")
		return
	}
	book.Writer = *writer
	respondCreated(c, buildBookResponse(book))
}

// Update modifies a book's title and, when provided, its writer.
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.catalog.GetBookByID(id)
	if err != nil {
		handleRepoError(c, err, "book")
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	book.Title = req.Title
	if req.WriterID != 0 || req.WriterName != "" {
		writer, ok := bc.resolveWriter(c, &req)
		if !ok {
			return
		}
		book.WriterID = writer.ID
		book.Writer = *writer
	}
	if err := bc.catalog.UpdateBook(book); err != nil {
		handleRepoError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, buildBookResponse(book))
}

// Delete removes a book together with its loans.
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := bc.catalog.DeleteBook(id); err != nil {
		handleRepoError(c, err, "book")
		return
	}
	c.Status(http.StatusNoContent)
}

// resolveWriter resolves a write payload to a writer row, responding on
// failure.
func (bc *BooksController) resolveWriter(c *gin.Context, req *BookRequest) (*entities.Writer, bool) {
	if req.WriterID != 0 {
		writer, err := bc.catalog.GetWriterByID(req.WriterID)
		if err != nil {
			handleRepoError(c, err, "writer")
			return nil, false
		}
		return writer, true
	}
	if req.WriterName == "" {
		respondBadRequest(c, "either writer_id or writer_name is required")
		return nil, false
	}
	writer, err := bc.catalog.GetOrCreateWriter(req.WriterName)
	if err != nil {
		respondInternalError(c, err, "get or create writer")
		return nil, false
	}
	return writer, true
}
