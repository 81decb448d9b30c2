package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	ctx := context.Background()
	Get().Info(ctx, "test message", String("k", "v"))
	Named("test").Info(ctx, "named message")
}

func TestLoggerLevelsAndFormats(t *testing.T) {
	Convey("Given the global logger", t, func() {
		So(Init(), ShouldBeNil)

		Convey("When setting levels", func() {
			So(SetLevelString("debug"), ShouldBeNil)
			So(SetLevelString("WARNING"), ShouldBeNil)
			So(SetLevelString(""), ShouldBeNil)
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})

		Convey("When setting formats", func() {
			So(SetFormat("json"), ShouldBeNil)
			So(SetFormat("text"), ShouldBeNil)
			So(SetFormat("xml"), ShouldNotBeNil)
			So(Get(), ShouldNotBeNil)
		})
	})
}

func TestStandaloneLogger(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		l := New(&buf, Options{Format: FormatJSON, Level: slog.LevelInfo}).Named("estimator")
		ctx := context.Background()

		Convey("When logging an entry with fields", func() {
			l.Warn(ctx, "predictor failed",
				Error(errors.New("boom")),
				Bool("fallback", true),
				Duration("took", 15*time.Millisecond),
				Float64("cost", 5225),
			)

			var entry map[string]any
			So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)

			Convey("Then the fields and caller are recorded", func() {
				So(entry["msg"], ShouldEqual, "predictor failed")
				So(entry["level"], ShouldEqual, "WARN")
				So(entry["logger"], ShouldEqual, "estimator")
				So(entry["fallback"], ShouldEqual, true)
				So(entry["cost"], ShouldEqual, 5225)
				So(entry["source"], ShouldContainSubstring, "logger_test.go:")
			})
		})

		Convey("When logging below the level", func() {
			l.Debug(ctx, "hidden")
			So(buf.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given the nop logger", t, func() {
		l := Nop().Named("x")
		So(func() { l.Info(context.Background(), "dropped") }, ShouldNotPanic)
	})
}
