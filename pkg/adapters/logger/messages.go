package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Server
		"Listening on %s":                    "%s で待ち受け中",
		"Shutting down server":               "サーバーをシャットダウン中",
		"%s %s %d %d bytes in %s [%s]":       "%s %s %d %d バイト %s [%s]",
		"%s %s: %s":                          "%s %s: %s",
		"Client went away: %s %s":            "クライアントが切断しました: %s %s",

		// Orchestration
		"Render %s: %s":                               "レンダー %s: %s",
		"Render %s completed in %s: %d bytes":         "レンダー %s が %s で完了しました: %d バイト",
		"Render %s failed while %s: %s (%s)":          "レンダー %s が %s 中に失敗しました: %s (%s)",
		"Stream %dx%d, sar %d:%d, rotation %d, duration %s, %d frames": "ストリーム %dx%d, SAR %d:%d, 回転 %d, 長さ %s, %d フレーム",
		"Dropping %d of %d tile samples":              "タイルのサンプル %d / %d を破棄します",
		"Sampling stopped at %s: %s":                  "%s でサンプリングを終了しました: %s",
		"Caller went away, discarding render result: %s": "呼び出し元が切断しました。レンダー結果を破棄します: %s",

		// Container backends
		"Detected %s container, codec %s, fragmented %v: using %s backend": "%s コンテナ, コーデック %s, フラグメント %v を検出: %s バックエンドを使用します",
		"Codec detection failed: %v":                  "コーデックの判定に失敗しました: %v",
		"mp4 backend declined: %v":                    "mp4 バックエンドが対応していません: %v",
		"ffprobe not found, only progressive H.264 MP4 is supported": "ffprobe が見つかりません。プログレッシブ H.264 MP4 のみ対応します",
		"Opened mp4 track %d: %dx%d, %d frames, duration %s": "mp4 トラック %d を開きました: %dx%d, %d フレーム, 長さ %s",
		"Probed %s stream %d (%s): %dx%d, %d frames, duration %s": "%s のストリーム %d (%s) を解析しました: %dx%d, %d フレーム, 長さ %s",
		"Spooled %d bytes to %s":                      "%d バイトを %s に書き出しました",

		// Stages
		"Decoding frame %d at %s":                     "フレーム %d (%s) をデコード中",
		"Decoding frame %d from samples %d-%d (rank %d)": "サンプル %[2]d-%[3]d からフレーム %[1]d をデコード中 (順位 %[4]d)",
		"Applying sample aspect ratio %d:%d (%dx%d -> %dx%d)": "サンプルアスペクト比 %d:%d を適用 (%dx%d -> %dx%d)",
		"Rotating frame by %d degrees":                "フレームを %d 度回転中",
		"Compositing %d frames into %dx%d grid with %d workers": "%d フレームを %dx%d グリッドに %d ワーカーで合成中",
		"Composition completed":                       "合成が完了しました",
		"Encoding %dx%d JPEG (quality %d, progressive %t, optimize %t, smoothing %d, dpi %d)": "%dx%d の JPEG をエンコード中 (品質 %d, プログレッシブ %t, 最適化 %t, スムージング %d, dpi %d)",
	})
}
