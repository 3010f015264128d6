package manifest_test

import (
	"errors"

	"github.com/go-test/deep"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/mandelsoft/dbinit/pkg/testutils"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/dbinit/pkg/manifest"
)

const requirements = `# application dependencies
fastapi==0.104.1
uvicorn[standard] == 0.24.0   # server
sqlalchemy>=2.0,<3 ; python_version >= "3.8"

python-jose[cryptography,httpx]~=3.3
passlib \
  [bcrypt]==1.7.4
--index-url https://pypi.org/simple
-r extra/dev.txt
`

const dev = `pytest
--requirement=../lint.txt
`

const lint = `ruff @ https://example.com/ruff.whl
`

const hash1 = "sha256:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
const hash2 = "sha256:fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"

const compiled = `# generated with hashes
fastapi==0.104.1 \
    --hash=` + hash1 + ` \
    --hash ` + hash2 + `
uvicorn==0.24.0 --hash=` + hash1 + `
https://example.com/pkgs/foo-1.0-py3-none-any.whl
git+https://github.com/org/repo.git@v1#egg=repo
./vendor/mypkg
../libs/bar-2.0.tar.gz ; python_version >= "3.8"
`

var _ = Describe("manifest", func() {
	var fs vfs.FileSystem

	Context("requirements", func() {
		It("parses a single requirement", func() {
			r := Must(manifest.ParseRequirement(`Flask_Login [Extra1, extra2] (>= 0.6 , != 0.6.1) ; sys_platform == "linux"`))
			Expect(deep.Equal(r, &manifest.Requirement{
				Name:   "Flask_Login",
				Extras: []string{"Extra1", "extra2"},
				Specifiers: []manifest.Specifier{
					{Operator: ">=", Version: "0.6"},
					{Operator: "!=", Version: "0.6.1"},
				},
				Marker: `sys_platform == "linux"`,
			})).To(BeNil())
			Expect(r.Key()).To(Equal("flask-login"))
			Expect(r.String()).To(Equal(`Flask_Login[Extra1,extra2]>=0.6,!=0.6.1; sys_platform == "linux"`))
		})

		It("prefers longest operators", func() {
			r := Must(manifest.ParseRequirement("pkg===1.0"))
			Expect(r.Specifiers).To(Equal([]manifest.Specifier{{Operator: "===", Version: "1.0"}}))
			r = Must(manifest.ParseRequirement("pkg<2"))
			Expect(r.Specifiers).To(Equal([]manifest.Specifier{{Operator: "<", Version: "2"}}))
		})

		It("parses a plain name", func() {
			r := Must(manifest.ParseRequirement("bcrypt"))
			Expect(r.Name).To(Equal("bcrypt"))
			Expect(r.Specifiers).To(BeEmpty())
		})

		DescribeTable("rejects malformed requirements",
			func(line string, msg string) {
				_, err := manifest.ParseRequirement(line)
				Expect(err).To(MatchError(ContainSubstring(msg)))
			},
			Entry("bad operator", "fastapi=>1.0", "version operator expected"),
			Entry("missing version", "fastapi==", "version expected"),
			Entry("unclosed extras", "fastapi[all", `"," expected`),
			Entry("empty marker", "fastapi==1.0;", "environment marker expected"),
			Entry("trailing garbage", "fastapi (==1.0) x", `unexpected "x"`),
			Entry("invalid name", "_fastapi", `invalid project name "_fastapi"`),
			Entry("no name", "==1.0", "project name expected"),
			Entry("missing url", "fastapi @ ", "URL expected"),
			Entry("unknown option", "fastapi==1.0 --frobnicate=1", `unsupported requirement option "--frobnicate"`),
			Entry("option without value", "fastapi==1.0 --hash", "option --hash requires a value"),
			Entry("invalid hash", "fastapi==1.0 --hash=md5:abc", `invalid hash "md5:abc"`),
			Entry("garbage after options", "fastapi==1.0 --hash="+hash1+" x", `unexpected "x"`),
			Entry("blank in location", "./vendor/my pkg", `unexpected "pkg"`),
			Entry("empty location marker", "./vendor/mypkg;", "environment marker expected"),
		)

		It("parses per requirement options", func() {
			r := Must(manifest.ParseRequirement("fastapi==0.104.1 --hash=" + hash1 + " -C build=fast"))
			Expect(r.Name).To(Equal("fastapi"))
			Expect(r.Specifiers).To(Equal([]manifest.Specifier{{Operator: "==", Version: "0.104.1"}}))
			Expect(r.Options).To(Equal([]*manifest.Option{
				{Name: "--hash", Value: hash1},
				{Name: "-C", Value: "build=fast"},
			}))
			Expect(r.String()).To(Equal("fastapi==0.104.1 --hash=" + hash1 + " -C=build=fast"))
		})

		DescribeTable("parses locations",
			func(line string, name string, url string, marker string) {
				Expect(manifest.IsLocation(line)).To(BeTrue())
				r := Must(manifest.ParseRequirement(line))
				Expect(r.Direct).To(BeTrue())
				Expect(r.Name).To(Equal(name))
				Expect(r.URL).To(Equal(url))
				Expect(r.Marker).To(Equal(marker))
			},
			Entry("wheel url", "https://example.com/pkgs/foo-1.0-py3-none-any.whl", "foo", "https://example.com/pkgs/foo-1.0-py3-none-any.whl", ""),
			Entry("vcs url", "git+https://github.com/org/repo.git@v1#egg=repo", "repo", "git+https://github.com/org/repo.git@v1#egg=repo", ""),
			Entry("url with marker", `https://example.com/bar.tar.gz ; sys_platform == "linux"`, "", "https://example.com/bar.tar.gz", `sys_platform == "linux"`),
			Entry("local path", "./vendor/mypkg", "", "./vendor/mypkg", ""),
			Entry("path with marker", `../libs/bar-2.0.tar.gz; python_version >= "3.8"`, "", "../libs/bar-2.0.tar.gz", `python_version >= "3.8"`),
			Entry("archive file", "bar-2.0.tar.gz", "", "bar-2.0.tar.gz", ""),
		)

		It("does not treat named urls as locations", func() {
			Expect(manifest.IsLocation("ruff @ https://example.com/ruff.whl")).To(BeFalse())
			Expect(manifest.IsLocation("flask[async]>=2.0")).To(BeFalse())
		})
	})

	Context("files", func() {
		BeforeEach(func() {
			fs = Must(MemoryFileSystem(map[string]string{
				"/app/requirements.txt":      requirements,
				"/app/extra/dev.txt":         dev,
				"/app/lint.txt":              lint,
				"/cycle/requirements.txt":    "a\n-r b.txt\n",
				"/cycle/b.txt":               "b\n-r requirements.txt\n",
				"/bad/requirements.txt":      "fastapi\n\nuvicorn >> 1\n",
				"/double/requirements.txt":   "SQLAlchemy[asyncio]>=2.0\nsqlalchemy<3\nsqlalchemy==2.0.23 ; python_version < \"3.8\"\n",
				"/conflict/requirements.txt": "foo @ https://a.example.com/foo.whl\nfoo @ https://b.example.com/foo.whl\n",
				"/compiled/requirements.txt": compiled,
				"/missing/requirements.txt":  "-r other.txt\n",
			}))
		})

		It("reads requirements with includes", func() {
			m := Must(manifest.Read("/app/requirements.txt", fs))
			Expect(m.Format).To(Equal(manifest.REQUIREMENTS))
			Expect(m.Names()).To(Equal([]string{"fastapi", "uvicorn", "sqlalchemy", "python-jose", "passlib", "pytest", "ruff"}))
			Expect(m.Files).To(Equal([]string{"/app/requirements.txt", "/app/extra/dev.txt", "/app/lint.txt"}))

			Expect(m.Requirement("uvicorn").Extras).To(Equal([]string{"standard"}))
			Expect(m.Requirement("sqlalchemy").Marker).To(Equal(`python_version >= "3.8"`))
			Expect(m.Requirement("passlib").Location()).To(Equal("/app/requirements.txt:7"))
			Expect(m.Requirement("passlib").Extras).To(Equal([]string{"bcrypt"}))
			Expect(m.Requirement("ruff").URL).To(Equal("https://example.com/ruff.whl"))

			Expect(m.Options).To(HaveLen(1))
			Expect(m.Options[0].String()).To(Equal("--index-url https://pypi.org/simple"))
		})

		It("reports missing manifests", func() {
			_, err := manifest.Read("/none/requirements.txt", fs)
			Expect(errors.Is(err, manifest.ErrManifestNotFound)).To(BeTrue())
		})

		It("reports missing includes", func() {
			_, err := manifest.Read("/missing/requirements.txt", fs)
			Expect(errors.Is(err, manifest.ErrManifestNotFound)).To(BeTrue())
			Expect(err).To(MatchError(HavePrefix("/missing/requirements.txt:1: ")))
		})

		It("reports malformed lines with location", func() {
			_, err := manifest.Read("/bad/requirements.txt", fs)
			Expect(err).To(MatchError(ContainSubstring("/bad/requirements.txt:3: invalid requirement")))
		})

		It("rejects include cycles", func() {
			_, err := manifest.Read("/cycle/requirements.txt", fs)
			Expect(err).To(MatchError("/cycle/b.txt:2: include cycle: /cycle/requirements.txt -> /cycle/b.txt -> /cycle/requirements.txt"))
		})

		It("merges requirements for the same project", func() {
			m := Must(manifest.Read("/double/requirements.txt", fs))
			Expect(m.Requirements).To(HaveLen(2))
			r := m.Requirements[0]
			Expect(r.Location()).To(Equal("/double/requirements.txt:1"))
			Expect(r.Extras).To(Equal([]string{"asyncio"}))
			Expect(r.Specifiers).To(Equal([]manifest.Specifier{{Operator: ">=", Version: "2.0"}, {Operator: "<", Version: "3"}}))
			Expect(m.Requirements[1].Marker).To(Equal(`python_version < "3.8"`))
		})

		It("rejects conflicting locations", func() {
			_, err := manifest.Read("/conflict/requirements.txt", fs)
			Expect(err).To(MatchError(`/conflict/requirements.txt:2: conflicting locations for "foo": https://a.example.com/foo.whl and https://b.example.com/foo.whl (first given at /conflict/requirements.txt:1)`))
		})

		It("reads hash pinned and direct requirements", func() {
			m := Must(manifest.Read("/compiled/requirements.txt", fs))
			Expect(m.Names()).To(Equal([]string{"fastapi", "uvicorn", "foo", "repo", "./vendor/mypkg", "../libs/bar-2.0.tar.gz"}))

			fastapi := m.Requirement("fastapi")
			Expect(fastapi.Options).To(HaveLen(2))
			Expect(fastapi.Options[1].Value).To(Equal(hash2))
			Expect(fastapi.Options[1].Line).To(Equal(2))
			Expect(m.Requirement("uvicorn").Options[0].Line).To(Equal(5))

			Expect(m.Requirement("repo").Direct).To(BeTrue())
			Expect(m.Requirements[5].Marker).To(Equal(`python_version >= "3.8"`))
			Expect(m.Options).To(BeEmpty())
		})
	})

	Context("project", func() {
		BeforeEach(func() {
			fs = Must(TestFileSystem("testdata", true))
			DeferCleanup(vfs.Cleanup, fs)
		})

		It("reads the project manifest", func() {
			m := Must(manifest.Read("testdata/requirements.txt", fs))
			Expect(m.Requirements).To(HaveLen(9))
			Expect(m.Files).To(Equal([]string{"testdata/requirements.txt", "testdata/dev/requirements-dev.txt"}))
			Expect(m.Requirement("pydantic_settings").Location()).To(Equal("testdata/requirements.txt:8"))
			Expect(m.Requirement("httpx").Location()).To(Equal("testdata/dev/requirements-dev.txt:2"))
		})
	})

	Context("go.mod", func() {
		BeforeEach(func() {
			fs = Must(MemoryFileSystem(map[string]string{
				"/app/go.mod": `module example.com/app

go 1.22

require (
	github.com/spf13/cobra v1.8.0
	golang.org/x/mod v0.18.0 // indirect
)

replace example.com/lib => ../lib
`,
				"/bad/go.mod": "module example.com/bad\n\nfrobnicate x\n",
			}))
		})

		It("detects the format", func() {
			Expect(manifest.DetectFormat("/x/go.mod")).To(Equal(manifest.GOMOD))
			Expect(manifest.DetectFormat("/x/requirements-dev.txt")).To(Equal(manifest.REQUIREMENTS))
		})

		It("reads pinned requirements", func() {
			m := Must(manifest.Read("/app/go.mod", fs))
			Expect(m.Format).To(Equal(manifest.GOMOD))
			Expect(m.Names()).To(Equal([]string{"github.com/spf13/cobra", "golang.org/x/mod"}))
			cobra := m.Requirements[0]
			Expect(cobra.Specifiers).To(Equal([]manifest.Specifier{{Operator: "==", Version: "v1.8.0"}}))
			Expect(cobra.Line).To(Equal(6))
			Expect(m.Requirements[1].Marker).To(Equal("indirect"))
			Expect(m.Options).To(HaveLen(1))
			Expect(m.Options[0].Value).To(Equal("example.com/lib => ../lib"))
		})

		It("rejects malformed go.mod files", func() {
			_, err := manifest.Read("/bad/go.mod", fs)
			Expect(err).To(MatchError(ContainSubstring("invalid go module manifest")))
		})

		It("reports missing go.mod files", func() {
			_, err := manifest.Read("/none/go.mod", fs)
			Expect(errors.Is(err, manifest.ErrManifestNotFound)).To(BeTrue())
		})
	})
})
