// Package main provides localization for the thumbextractor CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input and Output": "入出力",
		"Seek":             "シーク",
		"Output Size":      "出力サイズ",
		"Tile":             "タイル",
		"JPEG":             "JPEG",
		"Server":           "サーバー",
		"Debug":            "デバッグ",
		"Logging":          "ログ",

		// Root command
		"Extract video thumbnails and contact sheets as JPEG": "動画のサムネイルとコンタクトシートをJPEGで抽出",
		"thumbextractor renders a JPEG from a video frame at a given second, or a tiled contact sheet of frames sampled at regular intervals.": "thumbextractorは指定した秒の動画フレーム、または一定間隔でサンプリングしたフレームのタイル画像をJPEGとして出力します。",

		// Commands
		"Serve thumbnails over HTTP": "HTTPでサムネイルを配信",
		"Serve GET /<video path>?second=N[&width=W][&height=H] as JPEG thumbnails.": "GET /<動画パス>?second=N[&width=W][&height=H] にJPEGサムネイルを返します。",
		"Render a thumbnail or contact sheet from a video file":                     "動画ファイルからサムネイルまたはコンタクトシートを生成",
		"Render a single frame, or a tile grid of frames, from a local video file and save it as JPEG.": "ローカル動画ファイルから単一フレームまたはフレームのタイルを生成し、JPEGとして保存します。",
		"Print stream geometry and keyframes as JSON":                                "ストリームの形状とキーフレームをJSONで表示",
		"Inspect a video file with the same backends used for rendering.":            "レンダリングと同じバックエンドで動画ファイルを解析します。",
		"Show version information":                                                   "バージョン情報を表示",
		"thumbextractor (Go) version %s":                                             "thumbextractor (Go版) バージョン %s",

		// Common flags
		"YAML configuration file (THUMB_* environment variables override it)": "YAML設定ファイル（THUMB_* 環境変数で上書き可能）",
		"Log level (debug, info, warn, error)":                                "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                                             "全てのログ出力を抑制",

		// Serve flags
		"Listen address (e.g., :8080)":                       "待ち受けアドレス（例: :8080）",
		"Directory that request paths are resolved against": "リクエストパスの基準ディレクトリ",
		"Number of render workers (0 = CPU count)":          "レンダーワーカー数（0 = CPU数）",

		// Render flags
		"Output JPEG file path (required)":                 "出力JPEGファイルパス（必須）",
		"Output render report to file (Markdown format)":   "レンダーレポートをファイルに出力（Markdown形式）",
		"Timestamp to render in seconds (required)":        "レンダリングする時刻（秒、必須）",
		"Only render keyframes":                            "キーフレームのみをレンダリング",
		"With --only-keyframe, use the next keyframe instead of the previous one": "--only-keyframe 指定時、直前ではなく次のキーフレームを使用",
		"Output width in pixels (0 = follow the aspect ratio)":  "出力の幅（ピクセル、0 = アスペクト比に従う）",
		"Output height in pixels (0 = follow the aspect ratio)": "出力の高さ（ピクセル、0 = アスペクト比に従う）",
		"Number of tile columns":                           "タイルの列数",
		"Number of tile rows":                              "タイルの行数",
		"Maximum number of tile columns":                   "タイルの最大列数",
		"Maximum number of tile rows":                      "タイルの最大行数",
		"Interval between tile samples (e.g., 5s)":         "タイルのサンプル間隔（例: 5s）",
		"Margin around the tile grid in pixels":            "タイル周囲の余白（ピクセル）",
		"Padding between tiles in pixels":                  "タイル間の隙間（ピクセル）",
		"Tile background color (hex, e.g., #EEAA33)":       "タイルの背景色（16進数、例: #EEAA33）",
		"Force baseline-compatible quantization tables":    "ベースライン互換の量子化テーブルを使用",
		"Write a progressive JPEG":                         "プログレッシブJPEGを出力",
		"Optimize Huffman tables":                          "ハフマンテーブルを最適化",
		"Smoothing factor (0-100)":                         "スムージング係数（0-100）",
		"JPEG quality (0-100)":                             "JPEG品質（0-100）",
		"Pixel density written to the JFIF header":         "JFIFヘッダーに書き込む画素密度",
		"Enable debug output":                              "デバッグ出力を有効化",
		"Directory for debug output":                       "デバッグ出力のディレクトリ",

		// Runtime messages
		"Video argument is required":          "動画の引数が必要です",
		"Rendering %s at %.3fs...":            "%s を %.3f 秒でレンダリング中...",
		"Render failed (%s): %s":              "レンダリングに失敗しました (%s): %s",
		"Output saved to %s (%dx%d, %d bytes)": "出力を %s に保存しました (%dx%d, %d バイト)",
		"Report saved to %s":                  "レポートを %s に保存しました",
		"Failed to write report: %s":          "レポートの書き込みに失敗しました: %s",
		"Render worker panicked: %v":          "レンダーワーカーでパニックが発生しました: %v",

		// Report content
		"Render Summary":      "レンダーサマリー",
		"Source":              "入力",
		"Stream":              "ストリーム",
		"Request":             "リクエスト",
		"Result":              "結果",
		"Frames":              "フレーム",
		"Item":                "項目",
		"Value":               "値",
		"File":                "ファイル",
		"Size":                "サイズ",
		"Backend":             "バックエンド",
		"Coded Size":          "符号化サイズ",
		"Display Size":        "表示サイズ",
		"Sample Aspect Ratio": "サンプルアスペクト比",
		"Rotation":            "回転",
		"Duration":            "長さ",
		"Unknown":             "不明",
		"keyframes":           "キーフレーム",
		"Second":              "秒",
		"Width":               "幅",
		"Height":              "高さ",
		"auto":                "自動",
		"Seek Mode":           "シーク方式",
		"next keyframe":       "次のキーフレーム",
		"previous keyframe":   "直前のキーフレーム",
		"nearest frame":       "最も近いフレーム",
		"progressive":         "プログレッシブ",
		"baseline":            "ベースライン",
		"sequential":          "シーケンシャル",
		"smoothing":           "スムージング",
		"max":                 "最大",
		"every":               "間隔",
		"margin":              "余白",
		"padding":             "隙間",
		"Outcome":             "結果種別",
		"Reason":              "理由",
		"Render ID":           "レンダーID",
		"JPEG Size":           "JPEGサイズ",
		"Grid":                "グリッド",
		"used":                "使用",
		"dropped":             "破棄",
		"Canvas":              "キャンバス",
		"Elapsed":             "所要時間",
		"Target":              "目標",
		"Frame":               "フレーム",
		"Index":               "インデックス",
		"Keyframe":            "キーフレーム",
		"Generated at":        "生成日時",
	})
}
