package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sjsage522/fundgrubenotifier/config"
	"sjsage522/fundgrubenotifier/helpers"
	"sjsage522/fundgrubenotifier/internal/crawler"
	"sjsage522/fundgrubenotifier/internal/delta"
	"sjsage522/fundgrubenotifier/services/notifier"
	"sjsage522/fundgrubenotifier/services/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// retailerPage renders a retailer page with one store section
func retailerPage(lastUpdate time.Time, store string, listings [][2]string) string {
	var rows strings.Builder
	for i, l := range listings {
		fmt.Fprintf(&rows, `<tr><td>%s</td><td><a href="https://img.example/%s/%d.jpg">%s</a></td></tr>`, l[1], store, i+1, l[0])
	}
	return fmt.Sprintf(`<html><body>
<div>Letzter Abruf: %s Uhr</div>
<div><h3>%s</h3></div>
<div><table>%s</table></div>
</body></html>`, lastUpdate.Format("02.01.2006, 15:04"), store, rows.String())
}

type recordingMailer struct {
	subjects []string
	bodies   []string
}

func (m *recordingMailer) Send(_ context.Context, subject, body string) error {
	m.subjects = append(m.subjects, subject)
	m.bodies = append(m.bodies, body)
	return nil
}

func TestIntegration(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	updated := time.Now().In(berlin).Add(-10 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/saturn.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, retailerPage(updated, "Berlin", [][2]string{
			{"Apple iPhone 64GB Black", "12,34€"},
			{"Samsung Galaxy S21", "300,00€"},
		}))
	})
	mux.HandleFunc("/mediamarkt.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, retailerPage(updated, "Hamburg", [][2]string{
			{"Apple iPhone 128GB Red", "499,00€"},
		}))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	for _, backend := range []string{config.BackendCSV, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			productsFile := filepath.Join(dir, "products.json")
			require.NoError(t, os.WriteFile(productsFile, []byte(`[{"include": ["iphone", ["64gb", "128gb"]]}]`), 0o644))

			cfg := config.Config{
				SaturnURL:      server.URL + "/saturn.html",
				MMURL:          server.URL + "/mediamarkt.html",
				FeedTimezone:   "Europe/Berlin",
				ProductsFile:   productsFile,
				ResultsBackend: backend,
				ResultsFile:    filepath.Join(dir, "results.csv"),
				ErrorFile:      filepath.Join(dir, "previous_error.txt"),
				DatabasePath:   filepath.Join(dir, "fundgrube.db"),
				Environment:    "test",
			}

			deps, err := initializeServices(context.Background(), &cfg)
			require.NoError(t, err)
			defer deps.Close()
			assert.Nil(t, deps.Cache, "no page cache outside development")
			assert.Nil(t, deps.Publisher, "no stream without redis")
			assert.IsType(t, &notifier.NoOpMailer{}, deps.Mailer)

			crawlers, err := crawler.CreateCrawlers(&cfg, deps.Cache)
			require.NoError(t, err)

			mailer := &recordingMailer{}
			w := worker.NewWorker(
				crawlers,
				cfg.ProductsFile,
				delta.NewTracker(deps.Storage),
				notifier.New(mailer, deps.Storage),
				deps.Publisher,
				helpers.NewLogger(""),
			)

			result := w.RunOnce(context.Background())
			require.NoError(t, result.Err)
			assert.Equal(t, 2, result.NewCount)
			require.Len(t, result.Records, 2)

			// same first-seen time, so store descending decides
			assert.Equal(t, "Saturn - Berlin", result.Records[0].Store)
			assert.Equal(t, "Apple iPhone 64GB Black", result.Records[0].Name)
			assert.Equal(t, "MM - Hamburg", result.Records[1].Store)
			assert.Equal(t, "Apple iPhone 128GB Red", result.Records[1].Name)

			require.Equal(t, []string{"2 new items"}, mailer.subjects)
			assert.Equal(t,
				"Apple iPhone 64GB Black  12,34€  Saturn - Berlin  https://img.example/Berlin/1.jpg\n"+
					"Apple iPhone 128GB Red  499,00€  MM - Hamburg  https://img.example/Hamburg/1.jpg",
				mailer.bodies[0])

			// nothing changed on the pages: no new items, no mail
			result = w.RunOnce(context.Background())
			require.NoError(t, result.Err)
			assert.Equal(t, 0, result.NewCount)
			assert.Len(t, result.Records, 2)
			assert.Len(t, mailer.subjects, 1)
		})
	}
}
