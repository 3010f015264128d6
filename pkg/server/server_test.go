package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/mandelsoft/vfs/pkg/projectionfs"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/mandelsoft/dbinit/pkg/testutils"

	"github.com/mandelsoft/dbinit/pkg/server"
	"github.com/mandelsoft/dbinit/pkg/service"
)

var _ = Describe("server", func() {
	It("serves until the context is done", func() {
		srv := server.NewServer("127.0.0.1:0", false)
		srv.Handle("/test", http.HandlerFunc(testHandler))
		l := Must(srv.Listen())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- srv.ServeContext(ctx, l, time.Second)
		}()

		resp := Must(http.Get("http://" + l.Addr().String() + "/test"))
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(Must(io.ReadAll(resp.Body)))).To(Equal("test handler\n"))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("runs as service", func() {
		srv := server.NewServer("127.0.0.1:0", false)
		g := service.NewGroup(context.Background())
		Expect(g.Start(srv.AsService(time.Second))).To(Succeed())
		g.Cancel()
		Expect(g.Wait()).To(Succeed())
	})

	It("fails to start as service on invalid addresses", func() {
		srv := server.NewServer("127.0.0.1:-1", false)
		g := service.NewGroup(context.Background())
		Expect(g.Start(srv.AsService(time.Second))).To(MatchError(HavePrefix("service http server: ")))
	})

	It("writes json", func() {
		srv := server.NewServer(":0", false)
		srv.Handle("/error", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			server.WriteError(w, http.StatusServiceUnavailable, errors.New("not ready"))
		}))
		rec := httptestRecord(srv, "/error")
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
		Expect(rec.Body.String()).To(MatchJSON(`{"error":"not ready"}`))
	})

	Context("reports", func() {
		var srv *server.Server

		BeforeEach(func() {
			fs := Must(MemoryFileSystem(map[string]string{
				"/run.yaml":     "status: succeeded\n",
				"/old.yml":      "status: failed\n",
				"/notes.txt":    "no report\n",
				"/sub/x.yaml":   "status: nested\n",
				"/.hidden.yaml": "status: hidden\n",
			}))
			srv = server.NewServer(":0", false)
			server.NewReportHandler(fs, "/reports").RegisterHandler(srv)
		})

		It("lists yaml reports only", func() {
			rec := httptestRecord(srv, "/reports/")
			Expect(rec.Code).To(Equal(http.StatusOK))
			var list []*server.ReportInfo
			MustBeSuccessful(json.Unmarshal(rec.Body.Bytes(), &list))
			names := []string{}
			for _, r := range list {
				names = append(names, r.Name)
			}
			Expect(names).To(Equal([]string{"old.yml", "run.yaml"}))
			Expect(list[1].Size).To(Equal(int64(len("status: succeeded\n"))))

			Expect(httptestRecord(srv, "/reports").Code).To(Equal(http.StatusOK))
		})

		It("serves a report", func() {
			rec := httptestRecord(srv, "/reports/run.yaml")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/yaml"))
			Expect(rec.Body.String()).To(Equal("status: succeeded\n"))
		})

		DescribeTable("hides other files",
			func(path string) {
				Expect(httptestRecord(srv, path).Code).To(Equal(http.StatusNotFound))
			},
			Entry("non yaml", "/reports/notes.txt"),
			Entry("nested", "/reports/sub/x.yaml"),
			Entry("directory", "/reports/sub"),
			Entry("hidden", "/reports/.hidden.yaml"),
			Entry("missing", "/reports/gone.yaml"),
		)

		It("rejects other methods", func() {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/reports/run.yaml", nil))
			Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
		})

		It("lists nothing for missing directories", func() {
			fs := Must(MemoryFileSystem(map[string]string{"/data/run.yaml": "status: succeeded\n"}))
			h := server.NewReportHandler(Must(projectionfs.New(fs, "/data")), "/reports")
			MustBeSuccessful(fs.RemoveAll("/data"))
			Expect(Must(h.Reports())).To(BeEmpty())
		})
	})
})

func testHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "test handler\n")
}
