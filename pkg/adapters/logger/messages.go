package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("pt", l10n.LexiconMap{
		// Batch (info)
		"Starting batch %s: %d formats":          "Iniciando lote %s: %d formatos",
		"Rendering format %s (%d/%d)":            "Renderizando formato %s (%d/%d)",
		"Archive written: %s (%d files)":         "Arquivo zip gravado: %s (%d arquivos)",
		"Archive published: %s":                  "Arquivo zip publicado: %s",
		"Batch %s finished: %d files, %d failed": "Lote %s concluído: %d arquivos, %d falharam",
		"Output saved to %s":                     "Saída salva em %s",

		// Render driver
		"Rendering %s: %dx%d, %d frames at %.2f fps": "Renderizando %s: %dx%d, %d quadros a %.2f fps",
		"Format %s rendered: %d frames in %s":        "Formato %s renderizado: %d quadros em %s",

		// Derived outputs
		"Derived %s from %s: %d frames":                    "%s derivado de %s: %d quadros",
		"Probe of %s failed, using decoder frame rate: %v": "Falha ao analisar %s, usando a taxa de quadros do decodificador: %v",

		// Preview
		"Preview of %s written to %s (frame %d)": "Prévia de %s gravada em %s (quadro %d)",

		// Settings and media
		"Settings saved (%d keys)":      "Configurações salvas (%d chaves)",
		"Default settings written":      "Configurações padrão gravadas",
		"Media uploaded: %s (%d bytes)": "Mídia enviada: %s (%d bytes)",

		// Retention
		"Janitor started, sweeping every %s": "Limpeza iniciada, varrendo a cada %s",
		"Removed %d expired files":           "%d arquivos expirados removidos",

		// HTTP server
		"Listening on %s":           "Escutando em %s",
		"Shutting down HTTP server": "Encerrando o servidor HTTP",

		// Warnings
		"Format %s failed: %v":          "Formato %s falhou: %v",
		"Derived output %s failed: %v":  "Saída derivada %s falhou: %v",
		"Batch %s produced no files":    "O lote %s não gerou nenhum arquivo",
		"Publishing %s failed: %v":      "Falha ao publicar %s: %v",
		"Report %s failed: %v":          "Falha ao gravar o relatório %s: %v",
		"Could not remove %s: %v":       "Não foi possível remover %s: %v",
		"Interrupted, shutting down...": "Interrompido, encerrando...",
		"Shutdown failed: %v":           "Falha no encerramento: %v",
		"%s %s rejected: %v":            "%s %s recusado: %v",

		// Errors
		"Batch %s aborted: %v": "Lote %s abortado: %v",
		"%s %s failed: %v":     "%s %s falhou: %v",
	})
}
