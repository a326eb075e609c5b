// Package api provides HTTP API handlers for the kiosk.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/kirana/internal/store"
)

// ProductsHandler handles HTTP requests for catalog products.
type ProductsHandler struct {
	store *store.Store
}

// NewProductsHandler creates a new ProductsHandler with the given store.
func NewProductsHandler(s *store.Store) *ProductsHandler {
	return &ProductsHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *ProductsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/products, /api/products/import, /api/products/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/products")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if path == "import" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.importCSV(w, r)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type productRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
	Position int     `json:"position"`
}

type productResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Discount  float64 `json:"discount"`
	Position  int     `json:"position"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type listProductsResponse struct {
	Products []productResponse `json:"products"`
}

type importResponse struct {
	Imported int `json:"imported"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toProductResponse converts a store.Product to a productResponse.
func toProductResponse(p *store.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Discount:  p.Discount,
		Position:  p.Position,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/products and returns the catalog in class order.
func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.Products().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	response := listProductsResponse{
		Products: make([]productResponse, 0, len(products)),
	}
	for _, p := range products {
		response.Products = append(response.Products, toProductResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/products/{id} and returns a single product.
func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	product, err := h.store.Products().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get product")
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// create handles POST /api/products and creates a new catalog entry.
func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Price < 0 {
		writeError(w, http.StatusBadRequest, "Price must not be negative")
		return
	}
	if req.Discount < 0 || req.Discount > 1 {
		writeError(w, http.StatusBadRequest, "Discount must be between 0 and 1")
		return
	}

	product := &store.Product{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Price:    req.Price,
		Discount: req.Discount,
		Position: req.Position,
	}

	if err := h.store.Products().Upsert(product); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

// update handles PUT /api/products/{id} and updates an existing product.
func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	product, err := h.store.Products().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get product")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Price > 0 {
		product.Price = req.Price
	}
	if req.Discount >= 0 && req.Discount <= 1 {
		product.Discount = req.Discount
	}
	if req.Position > 0 {
		product.Position = req.Position
	}

	if err := h.store.Products().Upsert(product); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// delete handles DELETE /api/products/{id} and removes a catalog entry.
func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Products().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// importCSV handles POST /api/products/import. The request body is the
// legacy catalog CSV; rows are upserted by product ID and row order
// becomes the classifier class order.
func (h *ProductsHandler) importCSV(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Products().ImportCSV(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to import catalog: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, importResponse{Imported: count})
}
