package currency_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opexhub/expense-approval/internal/currency"
)

func TestCurrencyClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CurrencyClient Suite")
}

var _ = Describe("Client", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	newClient := func(ratesURL, countriesURL string) *currency.Client {
		return currency.NewClient(currency.Config{
			RatesAPIURL:     ratesURL,
			CountriesAPIURL: countriesURL,
			RequestTimeout:  2 * time.Second,
		}, logger)
	}

	Describe("Convert", func() {
		It("short-circuits same-currency conversions without a network call", func() {
			called := false
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			defer srv.Close()

			client := newClient(srv.URL, srv.URL)
			conv, err := client.Convert(context.Background(), 100, "USD", "USD")

			Expect(err).NotTo(HaveOccurred())
			Expect(conv.ConvertedAmount).To(Equal(100.0))
			Expect(conv.Rate).To(Equal(1.0))
			Expect(called).To(BeFalse())
		})

		It("uses the live rate when the API responds", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/USD"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"base":"USD","rates":{"EUR":0.9}}`))
			}))
			defer srv.Close()

			client := newClient(srv.URL, srv.URL)
			conv, err := client.Convert(context.Background(), 200, "USD", "EUR")

			Expect(err).NotTo(HaveOccurred())
			Expect(conv.ConvertedAmount).To(Equal(180.0))
			Expect(conv.Live).To(BeTrue())
		})

		It("falls back to the static table when the API is down", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			client := newClient(srv.URL, srv.URL)
			conv, err := client.Convert(context.Background(), 100, "USD", "EUR")

			Expect(err).NotTo(HaveOccurred())
			Expect(conv.ConvertedAmount).To(Equal(85.0))
			Expect(conv.Live).To(BeFalse())
		})

		It("converts 1:1 when no rate exists anywhere", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			client := newClient(srv.URL, srv.URL)
			conv, err := client.Convert(context.Background(), 50, "USD", "XYZ")

			Expect(err).NotTo(HaveOccurred())
			Expect(conv.ConvertedAmount).To(Equal(50.0))
			Expect(conv.Rate).To(Equal(1.0))
		})
	})

	Describe("CurrencyForCountry", func() {
		It("resolves the country's currency code", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`[{"currencies":{"IDR":{"name":"Indonesian rupiah","symbol":"Rp"}}}]`))
			}))
			defer srv.Close()

			client := newClient(srv.URL, srv.URL)
			code, err := client.CurrencyForCountry(context.Background(), "Indonesia")

			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal("IDR"))
		})

		It("defaults to USD when the lookup fails", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer srv.Close()

			client := newClient(srv.URL, srv.URL)
			code, err := client.CurrencyForCountry(context.Background(), "Atlantis")

			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal("USD"))
		})
	})
})
