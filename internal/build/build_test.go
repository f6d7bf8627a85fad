package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goplus/cellar/formula"
	"github.com/goplus/cellar/internal/configure"
	"github.com/goplus/cellar/internal/deps"
	"github.com/goplus/cellar/internal/headver"
	"github.com/goplus/cellar/pkgs/buildsys"
	"github.com/goplus/cellar/pkgs/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
)

var (
	linux64 = platform.Platform{OS: "linux", Arch: "amd64", WordSize: 64, OSMajor: 6}
	leopard = platform.Platform{OS: "darwin", Arch: "386", WordSize: 32, OSMajor: 9}
)

const (
	shflags   = " -Wl,-read_only_relocs,suppress"
	configMak = "prefix=/usr/local\nSHFLAGS=-shared -Wl,-soname,$$(@F)" + shflags + "\nCC=clang\n"
)

func testPackage() *formula.Package {
	pkg := &formula.Package{
		Name:      "ffmpeg",
		Version:   "0.10",
		Head:      "git://git.videolan.org/ffmpeg.git",
		FailsWith: []string{"llvm-gcc"},
		Configure: formula.Configure{
			Base:         []string{"--enable-shared", "--enable-gpl"},
			CompilerFlag: "--cc",
		},
		Dependencies: []formula.Dependency{
			{Name: "yasm", Kind: formula.BuildOnly},
			{Name: "x264", Kind: formula.Optional, Flags: []string{"--enable-libx264"}},
			{Name: "sdl", Option: "ffplay"},
		},
		Options: formula.Options{
			{Name: "tools", Description: "Install additional FFmpeg tools.", Tools: true},
			{Name: "ffplay", Description: "Build ffplay.", Disable: []string{"--disable-ffplay"}},
		},
		PlatformFlags: []formula.PlatformFlags{
			{When: []string{"legacy-os", "32-bit"}, CFlags: []string{"-mdynamic-no-pic"}},
		},
		Patches: []formula.Patch{
			{File: "config.mak", Var: "SHFLAGS", Remove: shflags, When: []string{"prefer-64-bit"}},
		},
		VersionFile: formula.VersionFile{Match: "N"},
	}
	pkg.SetDefaults()
	return pkg
}

type fixture struct {
	runner  *mockRunner
	vcs     *mockVCS
	log     *mockLogger
	builder *Builder

	work, pristine, prefix string
}

func newFixture(t *testing.T, present ...string) *fixture {
	t.Helper()
	saved := x11Root
	x11Root = t.TempDir()
	t.Cleanup(func() { x11Root = saved })

	root := t.TempDir()
	f := &fixture{
		runner:   &mockRunner{},
		vcs:      &mockVCS{},
		log:      &mockLogger{},
		work:     filepath.Join(root, "work"),
		pristine: filepath.Join(root, "pristine"),
		prefix:   filepath.Join(root, "Cellar", "ffmpeg", "0.10"),
	}
	require.NoError(t, os.MkdirAll(f.work, 0o755))
	require.NoError(t, os.MkdirAll(f.pristine, 0o755))
	f.runner.runFunc = f.simulate
	f.builder = NewBuilder(Options{
		Runner: f.runner,
		Query:  deps.NewSet(present...),
		VCS:    f.vcs,
		Logger: f.log,
	})
	return f
}

// simulate stands in for the native tools: configure generates config.mak.
func (f *fixture) simulate(cmd buildsys.Cmd) (buildsys.Result, error) {
	if cmd.Name == "./configure" {
		return buildsys.Result{}, os.WriteFile(filepath.Join(cmd.Dir, "config.mak"), []byte(configMak), 0o644)
	}
	return buildsys.Result{}, nil
}

func (f *fixture) request(p platform.Platform, inv formula.Invocation) Request {
	return Request{
		Package:    testPackage(),
		Invocation: inv,
		Context: formula.Context{
			Prefix:      f.prefix,
			Compiler:    "clang",
			Platform:    p,
			WorkDir:     f.work,
			PristineDir: f.pristine,
		},
	}
}

func (f *fixture) build(t *testing.T, req Request) (*Result, error) {
	t.Helper()
	return f.builder.Build(context.Background(), req)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuild(t *testing.T) {
	t.Setenv("CFLAGS", "-O2")
	t.Setenv("CC", "cc")
	f := newFixture(t, "yasm", "x264")

	req := f.request(leopard, formula.NewInvocation(false))
	res, err := f.build(t, req)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"./configure --prefix=" + f.prefix + " --enable-shared --enable-gpl --cc=clang --enable-libx264 --disable-ffplay",
		"make install",
	}, f.runner.commands())
	for _, c := range f.runner.calls {
		assert.Equal(t, f.work, c.Dir)
		assert.Contains(t, c.Env, "CC=clang")
		assert.Contains(t, c.Env, "CFLAGS=-O2 -mdynamic-no-pic")
	}
	// build-local environment never leaks
	assert.Equal(t, "-O2", os.Getenv("CFLAGS"))
	assert.Equal(t, "cc", os.Getenv("CC"))

	assert.Equal(t, "clang", res.Compiler)
	assert.Equal(t, configure.Fingerprint(buildKey(req.Package, req.Invocation, req.Context, res.Args)), res.Fingerprint)
	assert.NotEqual(t, configure.Fingerprint(res.Args), res.Fingerprint)
	assert.Nil(t, res.Version)
	assert.Empty(t, res.Tools)
	assert.False(t, res.Cached)

	// the patch only applies to prefer-64-bit hosts
	assert.Equal(t, configMak, readFile(t, filepath.Join(f.work, "config.mak")))

	r, err := loadReceipt(f.prefix)
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg", r.Name)
	assert.Equal(t, "0.10", r.Version)
	assert.Equal(t, res.Args, r.Args)
	assert.Equal(t, fingerprintHex(res.Fingerprint), r.Fingerprint)
	assert.Equal(t, leopard.String(), r.Platform)
	assert.Equal(t, map[string]string{"CC": "clang", "CFLAGS": "-O2 -mdynamic-no-pic"}, r.Env)
	assert.Nil(t, r.Dependencies)
}

func TestBuildRecordsDependencyVersions(t *testing.T) {
	f := newFixture(t)
	cellar := t.TempDir()
	for _, keg := range []string{"yasm/1.1.0", "yasm/1.2.0", "x264/r2245"} {
		require.NoError(t, os.MkdirAll(filepath.Join(cellar, keg, "bin"), 0o755))
	}
	f.builder.opts.Query = deps.NewCellar(cellar)

	res, err := f.build(t, f.request(linux64, formula.NewInvocation(false)))
	require.NoError(t, err)
	assert.Contains(t, res.Args, "--enable-libx264")

	r, err := loadReceipt(f.prefix)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"yasm": "1.2.0", "x264": "r2245"}, r.Dependencies)
}

func TestBuildSkipsIdenticalRebuild(t *testing.T) {
	f := newFixture(t, "yasm")
	req := f.request(linux64, formula.NewInvocation(false))

	first, err := f.build(t, req)
	require.NoError(t, err)
	calls := len(f.runner.calls)

	second, err := f.build(t, req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Len(t, f.runner.calls, calls)

	req.Force = true
	third, err := f.build(t, req)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Greater(t, len(f.runner.calls), calls)

	// different arguments rebuild
	f.builder.opts.Query = deps.NewSet("yasm", "x264")
	fourth, err := f.build(t, f.request(linux64, formula.NewInvocation(false)))
	require.NoError(t, err)
	assert.False(t, fourth.Cached)
}

func TestBuildRebuildsForDifferentHost(t *testing.T) {
	// gst-plugins-base declares no compiler flag, so the compiler never
	// shows up in its configure arguments.
	gst := func(req Request) Request {
		req.Package.Configure.CompilerFlag = ""
		req.Package.Patches = nil
		return req
	}

	tests := []struct {
		name   string
		change func(req Request) Request
	}{
		{
			name: "compiler",
			change: func(req Request) Request {
				req.Context.Compiler = "gcc"
				return req
			},
		},
		{
			name: "platform",
			change: func(req Request) Request {
				req.Context.Platform = leopard
				return req
			},
		},
		{
			name: "compiler and word size",
			change: func(req Request) Request {
				req.Context.Compiler = "gcc"
				req.Context.Platform = leopard
				return req
			},
		},
		{
			name: "tools requested",
			change: func(req Request) Request {
				req.Invocation = formula.NewInvocation(false, "tools")
				return req
			},
		},
		{
			name: "environment preset",
			change: func(req Request) Request {
				req.Package.Env = []string{formula.EnvX11}
				return req
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "yasm")
			first := gst(f.request(linux64, formula.NewInvocation(false)))
			firstRes, err := f.build(t, first)
			require.NoError(t, err)
			calls := len(f.runner.calls)

			second := tt.change(gst(f.request(linux64, formula.NewInvocation(false))))
			secondRes, err := f.build(t, second)
			require.NoError(t, err)
			assert.Equal(t, firstRes.Args, secondRes.Args)
			assert.False(t, secondRes.Cached)
			assert.NotEqual(t, firstRes.Fingerprint, secondRes.Fingerprint)
			require.Greater(t, len(f.runner.calls), calls)
			assert.Equal(t, "./configure", f.runner.calls[calls].Name)

			r, err := loadReceipt(f.prefix)
			require.NoError(t, err)
			assert.Equal(t, fingerprintHex(secondRes.Fingerprint), r.Fingerprint)
		})
	}
}

func TestBuildPatch(t *testing.T) {
	t.Run("removes flag", func(t *testing.T) {
		f := newFixture(t, "yasm")
		_, err := f.build(t, f.request(linux64, formula.NewInvocation(false)))
		require.NoError(t, err)

		got := readFile(t, filepath.Join(f.work, "config.mak"))
		assert.Equal(t, strings.Replace(configMak, shflags, "", 1), got)
		assert.NotContains(t, got, "read_only_relocs")
		assert.Contains(t, strings.Join(f.log.infos, "\n"), "value-shared -Wl,-soname,$$(@F)\n")
	})

	t.Run("flag already absent", func(t *testing.T) {
		f := newFixture(t, "yasm")
		clean := "SHFLAGS=-shared\n"
		f.runner.runFunc = func(cmd buildsys.Cmd) (buildsys.Result, error) {
			if cmd.Name == "./configure" {
				return buildsys.Result{}, os.WriteFile(filepath.Join(cmd.Dir, "config.mak"), []byte(clean), 0o644)
			}
			return buildsys.Result{}, nil
		}
		_, err := f.build(t, f.request(linux64, formula.NewInvocation(false)))
		require.NoError(t, err)
		assert.Equal(t, clean, readFile(t, filepath.Join(f.work, "config.mak")))
		assert.Empty(t, f.log.warns)
	})

	t.Run("generated file missing", func(t *testing.T) {
		f := newFixture(t, "yasm")
		f.runner.runFunc = nil
		_, err := f.build(t, f.request(linux64, formula.NewInvocation(false)))
		require.ErrorContains(t, err, "patch config.mak")
		require.Len(t, f.runner.calls, 1)
		assert.Equal(t, "./configure", f.runner.calls[0].Name)
	})
}

func TestBuildStepFailures(t *testing.T) {
	tests := []struct {
		name     string
		fail     func(cmd buildsys.Cmd) bool
		step     string
		wantCall int
	}{
		{
			name:     "configure",
			fail:     func(cmd buildsys.Cmd) bool { return cmd.Name == "./configure" },
			step:     "configure",
			wantCall: 1,
		},
		{
			name:     "install",
			fail:     func(cmd buildsys.Cmd) bool { return cmd.Name == "make" && cmd.Args[0] == "install" },
			step:     "install",
			wantCall: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "yasm")
			f.runner.runFunc = func(cmd buildsys.Cmd) (buildsys.Result, error) {
				if tt.fail(cmd) {
					return buildsys.Result{ExitCode: 2}, nil
				}
				return f.simulate(cmd)
			}

			_, err := f.build(t, f.request(leopard, formula.NewInvocation(false)))
			var stepErr *buildsys.StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, tt.step, stepErr.Step)
			assert.Equal(t, 2, stepErr.ExitCode)
			assert.EqualError(t, err, tt.step+" failed: exit status 2")
			assert.Len(t, f.runner.calls, tt.wantCall)

			_, err = os.Stat(filepath.Join(f.prefix, receiptFile))
			assert.True(t, errors.Is(err, os.ErrNotExist))
		})
	}
}

func TestBuildHead(t *testing.T) {
	f := newFixture(t, "yasm")
	f.runner.runFunc = func(cmd buildsys.Cmd) (buildsys.Result, error) {
		if cmd.Name == "./version.sh" {
			return buildsys.Result{ExitCode: 1}, nil
		}
		return f.simulate(cmd)
	}
	f.vcs.describeFunc = func(dir, match string) (string, error) {
		assert.Equal(t, f.pristine, dir)
		assert.Equal(t, "N", match)
		return "N-38421-g4f0fc5c", nil
	}

	res, err := f.build(t, f.request(leopard, formula.NewInvocation(true)))
	require.NoError(t, err)

	cmds := f.runner.commands()
	require.Len(t, cmds, 3)
	assert.True(t, strings.HasPrefix(cmds[0], "./configure "))
	assert.Equal(t, "./version.sh", cmds[1])
	assert.Equal(t, "make install", cmds[2])
	assert.Equal(t, f.pristine, f.runner.calls[1].Dir)

	require.NotNil(t, res.Version)
	assert.Equal(t, headver.Record{Value: "git-N-38421-g4f0fc5c", Source: headver.Describe}, *res.Version)
	assert.Equal(t, "git-N-38421-g4f0fc5c\n", readFile(t, filepath.Join(f.work, "VERSION")))

	r, err := loadReceipt(f.prefix)
	require.NoError(t, err)
	assert.True(t, r.Head)
	assert.Equal(t, "git-N-38421-g4f0fc5c", r.Version)
}

func TestBuildHeadUnknownVersion(t *testing.T) {
	f := newFixture(t, "yasm")
	f.runner.runFunc = func(cmd buildsys.Cmd) (buildsys.Result, error) {
		if cmd.Name == "./version.sh" {
			return buildsys.Result{ExitCode: -1}, errors.New("exec: no such file")
		}
		return f.simulate(cmd)
	}

	res, err := f.build(t, f.request(leopard, formula.NewInvocation(true)))
	require.NoError(t, err)
	assert.Equal(t, headver.Placeholder, res.Version.Source)
	assert.Equal(t, "UNKNOWN\n", readFile(t, filepath.Join(f.work, "VERSION")))
	require.Len(t, f.log.warns, 1)
	assert.Contains(t, f.log.warns[0], "could not determine build version")
	assert.Equal(t, "make install", f.runner.commands()[2])
}

func TestBuildHeadKeepsShippedVersion(t *testing.T) {
	f := newFixture(t, "yasm")
	require.NoError(t, os.WriteFile(filepath.Join(f.work, "VERSION"), []byte("0.10\n"), 0o644))

	res, err := f.build(t, f.request(leopard, formula.NewInvocation(true)))
	require.NoError(t, err)
	assert.Equal(t, headver.Record{Value: "0.10", Source: headver.PersistedFile}, *res.Version)
	assert.Zero(t, f.vcs.calls)
	assert.Equal(t, []string{"./configure", "make"}, []string{f.runner.calls[0].Name, f.runner.calls[1].Name})
}

func TestBuildHeadWithoutSource(t *testing.T) {
	f := newFixture(t, "yasm")
	req := f.request(linux64, formula.NewInvocation(true))
	req.Package.Head = ""

	_, err := f.build(t, req)
	require.ErrorIs(t, err, ErrNoHead)
	assert.Empty(t, f.runner.calls)
}

func TestBuildMissingDependency(t *testing.T) {
	tests := []struct {
		name    string
		present []string
		inv     formula.Invocation
		missing string
	}{
		{name: "build dependency", inv: formula.NewInvocation(false), missing: "yasm"},
		{name: "gated dependency", present: []string{"yasm"}, inv: formula.NewInvocation(false, "ffplay"), missing: "sdl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.present...)
			res, err := f.build(t, f.request(linux64, tt.inv))
			require.NoError(t, err)
			assert.False(t, res.Cached)
			require.Len(t, f.log.warns, 1)
			assert.Contains(t, f.log.warns[0], "dependency not installed")
			assert.Contains(t, f.log.warns[0], tt.missing)
			assert.Equal(t, "./configure", f.runner.calls[0].Name)
		})

		t.Run(tt.name+" strict", func(t *testing.T) {
			f := newFixture(t, tt.present...)
			f.builder.opts.Strict = true
			_, err := f.build(t, f.request(linux64, tt.inv))
			require.ErrorIs(t, err, ErrMissingDependency)

			var zErr *zerr.Error
			require.ErrorAs(t, err, &zErr)
			assert.Equal(t, tt.missing, zErr.Metadata()["dependency"])
			assert.Empty(t, f.runner.calls)
		})
	}
}

func TestBuildCompilerFallback(t *testing.T) {
	f := newFixture(t, "yasm")
	req := f.request(linux64, formula.NewInvocation(false))
	req.Context.Compiler = "/usr/bin/llvm-gcc"

	res, err := f.build(t, req)
	require.NoError(t, err)
	assert.Equal(t, "clang", res.Compiler)
	assert.Contains(t, res.Args, "--cc=clang")
	assert.Contains(t, f.runner.calls[0].Env, "CC=clang")
	require.Len(t, f.log.warns, 1)
	assert.Contains(t, f.log.warns[0], "compiler is known to fail")
}

func TestSelectCompiler(t *testing.T) {
	cc, err := selectCompiler("gcc-4.2", []string{"llvm-gcc"}, DefaultCompilers)
	require.NoError(t, err)
	assert.Equal(t, "gcc-4.2", cc)

	cc, err = selectCompiler("", nil, DefaultCompilers)
	require.NoError(t, err)
	assert.Equal(t, "clang", cc)

	cc, err = selectCompiler("clang", []string{"clang"}, DefaultCompilers)
	require.NoError(t, err)
	assert.Equal(t, "gcc", cc)

	_, err = selectCompiler("clang", []string{"clang", "gcc"}, DefaultCompilers)
	require.ErrorIs(t, err, ErrNoCompiler)
}

func TestBuildTools(t *testing.T) {
	f := newFixture(t, "yasm")
	f.runner.runFunc = func(cmd buildsys.Cmd) (buildsys.Result, error) {
		if cmd.Name == "make" && len(cmd.Args) == 1 && cmd.Args[0] == "alltools" {
			dir := filepath.Join(cmd.Dir, "tools")
			if err := os.MkdirAll(filepath.Join(dir, "subdir"), 0o755); err != nil {
				return buildsys.Result{}, err
			}
			for name, mode := range map[string]os.FileMode{
				"qt-faststart": 0o755,
				"cws2fws":      0o755,
				"trasher.c":    0o644,
				"Makefile":     0o644,
			} {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(name), mode); err != nil {
					return buildsys.Result{}, err
				}
			}
			return buildsys.Result{}, nil
		}
		return f.simulate(cmd)
	}

	res, err := f.build(t, f.request(linux64, formula.NewInvocation(false, "tools")))
	require.NoError(t, err)
	assert.Equal(t, []string{"make", "install"}, append([]string{f.runner.calls[1].Name}, f.runner.calls[1].Args...))
	assert.Equal(t, []string{"alltools"}, f.runner.calls[2].Args)

	bin := filepath.Join(f.prefix, "bin")
	assert.Equal(t, []string{filepath.Join(bin, "cws2fws"), filepath.Join(bin, "qt-faststart")}, res.Tools)
	info, err := os.Stat(filepath.Join(bin, "qt-faststart"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o111)
	assert.Equal(t, "qt-faststart", readFile(t, filepath.Join(bin, "qt-faststart")))
	_, err = os.Stat(filepath.Join(bin, "trasher.c"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestBuildToolsFailure(t *testing.T) {
	f := newFixture(t, "yasm")
	f.runner.runFunc = func(cmd buildsys.Cmd) (buildsys.Result, error) {
		if cmd.Name == "make" && cmd.Args[0] == "alltools" {
			return buildsys.Result{ExitCode: 1}, nil
		}
		return f.simulate(cmd)
	}

	_, err := f.build(t, f.request(linux64, formula.NewInvocation(false, "tools")))
	require.EqualError(t, err, "tools: build failed: exit status 1")
}

func TestBuildTarget(t *testing.T) {
	f := newFixture(t, "yasm")
	req := f.request(leopard, formula.NewInvocation(false))
	req.Package.BuildTarget = "all"

	_, err := f.build(t, req)
	require.NoError(t, err)
	cmds := f.runner.commands()
	assert.Equal(t, []string{"make all", "make install"}, cmds[1:])
}

func TestBuildX11Preset(t *testing.T) {
	t.Setenv("CPPFLAGS", "")
	t.Setenv("LDFLAGS", "")
	t.Setenv("PKG_CONFIG_PATH", "")
	f := newFixture(t, "yasm")
	req := f.request(leopard, formula.NewInvocation(false))
	req.Package.Env = []string{formula.EnvX11}

	_, err := f.build(t, req)
	require.NoError(t, err)
	env := f.runner.calls[0].Env
	assert.Contains(t, env, "CPPFLAGS=-I"+x11Root+"/include")
	assert.Contains(t, env, "LDFLAGS=-L"+x11Root+"/lib")
	assert.Contains(t, env, "PKG_CONFIG_PATH="+x11Root+"/lib/pkgconfig:"+x11Root+"/share/pkgconfig")
	assert.Empty(t, f.log.warns)
}

func TestPlan(t *testing.T) {
	f := newFixture(t, "yasm", "x264")
	// sdl is required by ffplay and absent
	args, cc, err := f.builder.Plan(f.request(linux64, formula.NewInvocation(false, "ffplay")))
	require.NoError(t, err)
	assert.Equal(t, "clang", cc)
	assert.Contains(t, args, "--enable-libx264")
	assert.NotContains(t, args, "--disable-ffplay")
	require.Len(t, f.log.warns, 1)

	f.builder.opts.Strict = true
	args, cc, err = f.builder.Plan(f.request(linux64, formula.NewInvocation(false, "ffplay")))
	require.ErrorIs(t, err, ErrMissingDependency)
	assert.Nil(t, args)
	assert.Empty(t, cc)

	args, cc, err = f.builder.Plan(f.request(linux64, formula.NewInvocation(false)))
	require.NoError(t, err)
	assert.Equal(t, "clang", cc)
	assert.Contains(t, args, "--disable-ffplay")
	assert.Empty(t, f.runner.calls)
}
