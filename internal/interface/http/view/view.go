// Package view 页面模板
package view

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Templates 解析内嵌模板，供gin.Engine.SetHTMLTemplate使用
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(files, "templates/*.html"))
}
