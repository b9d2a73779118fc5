package expense_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/go-chi/chi"

	"github.com/frahmantamala/expense-tracker/internal/auth"
	"github.com/frahmantamala/expense-tracker/internal/expense"
)

// injectUser fakes the auth middleware for handler tests.
func injectUser(u *auth.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u != nil {
				r = r.WithContext(auth.ContextWithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

var _ = Describe("Expense Handler", func() {
	var (
		mockRepo *mockExpenseRepository
		handler  *expense.Handler
		owner    *auth.User
		other    *auth.User
	)

	newRouter := func(actor *auth.User) *chi.Mux {
		router := chi.NewRouter()
		router.Use(injectUser(actor))
		router.Route("/expenses", func(er chi.Router) {
			er.Get("/", handler.ListExpenses)
			er.Post("/", handler.CreateExpense)
			er.Get("/summary/", handler.Summary)
			er.Get("/{id}/", handler.GetExpense)
			er.Put("/{id}/", handler.UpdateExpense)
			er.Patch("/{id}/", handler.PatchExpense)
			er.Delete("/{id}/", handler.DeleteExpense)
		})
		return router
	}

	BeforeEach(func() {
		mockRepo = newMockExpenseRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := expense.NewService(mockRepo, logger)
		handler = expense.NewHandler(service)

		owner = &auth.User{ID: 1, Username: "alice"}
		other = &auth.User{ID: 2, Username: "bob"}
	})

	Describe("POST /expenses/", func() {
		It("should create an expense and return 201", func() {
			body := `{"title":"Lunch","amount":"12.50","category":"food","date":"2025-01-06"}`
			req := httptest.NewRequest(http.MethodPost, "/expenses/", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp["title"]).To(Equal("Lunch"))
			Expect(resp["amount"]).To(Equal("12.50"))
			Expect(resp["date"]).To(Equal("2025-01-06"))
			Expect(resp["user"]).To(BeNumerically("==", owner.ID))
		})

		It("should accept a bare JSON number for the amount", func() {
			body := `{"title":"Lunch","amount":12.5,"category":"food","date":"2025-01-06"}`
			req := httptest.NewRequest(http.MethodPost, "/expenses/", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
		})

		It("should return 400 for a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/expenses/", bytes.NewBufferString("{not json"))
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should report a non-numeric amount string as a field error", func() {
			body := `{"title":"Lunch","amount":"abc","category":"food","date":"2025-01-15"}`
			req := httptest.NewRequest(http.MethodPost, "/expenses/", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("VALIDATION_FAILED"))
			Expect(w.Body.String()).To(ContainSubstring("amount"))
		})

		It("should return 400 with field details when validation fails", func() {
			body := `{"title":"","amount":"12.505","category":"nope","date":"bad"}`
			req := httptest.NewRequest(http.MethodPost, "/expenses/", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("VALIDATION_FAILED"))
		})

		It("should return 401 without an authenticated user", func() {
			body := `{"title":"Lunch","amount":"12.50","category":"food","date":"2025-01-06"}`
			req := httptest.NewRequest(http.MethodPost, "/expenses/", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			newRouter(nil).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("GET /expenses/", func() {
		BeforeEach(func() {
			seedExpense(mockRepo, owner.ID, "Lunch", "10.00", "food", "2025-01-06")
			seedExpense(mockRepo, owner.ID, "Train", "7.25", "travel", "2025-01-15")
			seedExpense(mockRepo, other.ID, "Taxi", "20.00", "travel", "2025-01-08")
		})

		It("should list only the requester's expenses", func() {
			req := httptest.NewRequest(http.MethodGet, "/expenses/", nil)
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp []map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp).To(HaveLen(2))
		})

		It("should silently ignore unparseable date filters", func() {
			req := httptest.NewRequest(http.MethodGet, "/expenses/?start_date=not-a-date&end_date=also-bad", nil)
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp []map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp).To(HaveLen(2))
		})

		It("should pass an unknown category filter through and match nothing", func() {
			req := httptest.NewRequest(http.MethodGet, "/expenses/?category=entertainment", nil)
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp []map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp).To(BeEmpty())
		})
	})

	Describe("GET /expenses/{id}/", func() {
		var seeded *expense.Expense

		BeforeEach(func() {
			seeded = seedExpense(mockRepo, owner.ID, "Lunch", "12.50", "food", "2025-01-06")
		})

		It("should return the expense to its owner", func() {
			req := httptest.NewRequest(http.MethodGet, "/expenses/1/", nil)
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp["id"]).To(BeNumerically("==", seeded.ID))
		})

		It("should return 403 for another user's expense", func() {
			req := httptest.NewRequest(http.MethodGet, "/expenses/1/", nil)
			w := httptest.NewRecorder()

			newRouter(other).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("should return 404 for an absent id regardless of requester", func() {
			req := httptest.NewRequest(http.MethodGet, "/expenses/999/", nil)
			w := httptest.NewRecorder()

			newRouter(other).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("should return 400 for a non-numeric id", func() {
			req := httptest.NewRequest(http.MethodGet, "/expenses/abc/", nil)
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("PATCH /expenses/{id}/", func() {
		BeforeEach(func() {
			seedExpense(mockRepo, owner.ID, "Lunch", "12.50", "food", "2025-01-06")
		})

		It("should apply a partial update", func() {
			body := `{"title":"Team lunch"}`
			req := httptest.NewRequest(http.MethodPatch, "/expenses/1/", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp["title"]).To(Equal("Team lunch"))
			Expect(resp["amount"]).To(Equal("12.50"))
		})

		It("should report a non-numeric amount string as a field error", func() {
			body := `{"amount":"abc"}`
			req := httptest.NewRequest(http.MethodPatch, "/expenses/1/", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("VALIDATION_FAILED"))
			Expect(w.Body.String()).To(ContainSubstring("amount"))
		})
	})

	Describe("PUT /expenses/{id}/", func() {
		BeforeEach(func() {
			seedExpense(mockRepo, owner.ID, "Lunch", "12.50", "food", "2025-01-06")
		})

		It("should reject an incomplete full update", func() {
			body := `{"title":"Team lunch"}`
			req := httptest.NewRequest(http.MethodPut, "/expenses/1/", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should replace the record when complete", func() {
			body := `{"title":"Dinner","amount":"30.00","category":"food","date":"2025-01-07"}`
			req := httptest.NewRequest(http.MethodPut, "/expenses/1/", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp["title"]).To(Equal("Dinner"))
		})
	})

	Describe("DELETE /expenses/{id}/", func() {
		BeforeEach(func() {
			seedExpense(mockRepo, owner.ID, "Lunch", "12.50", "food", "2025-01-06")
		})

		It("should delete and return 204", func() {
			req := httptest.NewRequest(http.MethodDelete, "/expenses/1/", nil)
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNoContent))
		})

		It("should return 403 for non-owners", func() {
			req := httptest.NewRequest(http.MethodDelete, "/expenses/1/", nil)
			w := httptest.NewRecorder()

			newRouter(other).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("GET /expenses/summary/", func() {
		BeforeEach(func() {
			seedExpense(mockRepo, owner.ID, "Lunch", "10.00", "food", "2025-01-06")
			seedExpense(mockRepo, owner.ID, "Dinner", "5.50", "food", "2025-01-10")
			seedExpense(mockRepo, owner.ID, "Train", "7.25", "travel", "2025-01-15")
		})

		It("should return per-category totals", func() {
			req := httptest.NewRequest(http.MethodGet, "/expenses/summary/", nil)
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp []map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp).To(HaveLen(2))
			Expect(resp[0]["category"]).To(Equal("food"))
			Expect(resp[0]["total"]).To(Equal("15.50"))
		})

		It("should drop unparseable date filters silently", func() {
			req := httptest.NewRequest(http.MethodGet, "/expenses/summary/?start_date=garbage", nil)
			w := httptest.NewRecorder()

			newRouter(owner).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp []map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp).To(HaveLen(2))
		})
	})
})
