// Package i18n holds the static string table shown to end users.
package i18n

import (
	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"golang.org/x/text/language"
)

type Language string

const (
	English Language = "en"
	Chinese Language = "zh"
)

type Translations struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	DropText     string `json:"dropText"`
	DropSubText  string `json:"dropSubText"`
	Browse       string `json:"browse"`
	Processing   string `json:"processing"`
	Success      string `json:"success"`
	Download     string `json:"download"`
	Reset        string `json:"reset"`
	ErrorGeneric string `json:"errorGeneric"`
	ErrorType    string `json:"errorType"`
	Footer       string `json:"footer"`
	FileName     string `json:"fileName"`
	ImageSize    string `json:"imageSize"`
}

var dictionary = map[Language]Translations{
	English: {
		Title:        "LastFrame",
		Subtitle:     "Extract the perfect ending from your videos.",
		DropText:     "Drag & drop video here",
		DropSubText:  "or click to browse",
		Browse:       "Browse Files",
		Processing:   "Extracting last frame...",
		Success:      "Frame Extracted Successfully",
		Download:     "Download PNG",
		Reset:        "Convert Another",
		ErrorGeneric: "Failed to process video. Please try another file.",
		ErrorType:    "Invalid file type. Please upload a video file.",
		Footer:       "Your files are processed privately and never shared.",
		FileName:     "File Name",
		ImageSize:    "Resolution",
	},
	Chinese: {
		Title:        "LastFrame",
		Subtitle:     "一键提取视频最后一帧。",
		DropText:     "拖放视频文件到这里",
		DropSubText:  "或点击浏览",
		Browse:       "选择文件",
		Processing:   "正在提取最后一帧...",
		Success:      "提取成功",
		Download:     "下载 PNG",
		Reset:        "处理新视频",
		ErrorGeneric: "处理视频失败，请尝试其他文件。",
		ErrorType:    "文件格式错误，请上传视频文件。",
		Footer:       "您的文件仅用于处理，不会被分享。",
		FileName:     "文件名",
		ImageSize:    "分辨率",
	},
}

var supported = []Language{English, Chinese}

// Match picks a supported language from BCP 47 tags or Accept-Language
// values, in order of preference. Any Chinese variant selects Chinese;
// anything it cannot place falls back to English.
func Match(tags ...string) Language {
	for _, t := range tags {
		if t == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(t)
		if err != nil {
			continue
		}
		for _, tag := range parsed {
			base, conf := tag.Base()
			if conf == language.No {
				continue
			}
			for _, lang := range supported {
				if base.String() == string(lang) {
					return lang
				}
			}
		}
	}
	return English
}

func Lookup(lang Language) Translations {
	if t, ok := dictionary[lang]; ok {
		return t
	}
	return dictionary[English]
}

// ErrorMessage collapses an extraction failure into one of the two texts an
// end user ever sees.
func ErrorMessage(lang Language, err error) string {
	kind, _ := entity.KindOf(err)
	return KindMessage(lang, kind)
}

// KindMessage is ErrorMessage for a stored kind. An empty kind reads as a
// processing failure.
func KindMessage(lang Language, kind entity.ErrorKind) string {
	t := Lookup(lang)
	if kind != "" && kind.Category() == entity.CategoryWrongInputType {
		return t.ErrorType
	}
	return t.ErrorGeneric
}
