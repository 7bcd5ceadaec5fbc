// Package main provides localization for the urbnews CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Portuguese translations for CLI messages.
	l10n.Register("pt", l10n.LexiconMap{
		// Flag categories
		"Configuration":     "Configuração",
		"Video and Quality": "Vídeo e qualidade",
		"Output":            "Saída",
		"Debug":             "Depuração",
		"Logging":           "Log",

		// Root command
		"Render branded Urbnews promo videos": "Renderiza vídeos promocionais com a identidade Urbnews",

		// Commands
		"Render every format and bundle the videos into a zip archive": "Renderiza todos os formatos e junta os vídeos num arquivo zip",
		"Render the preview frame of one format as JPEG":               "Renderiza o quadro de prévia de um formato em JPEG",
		"Serve the web interface API":                                  "Serve a API da interface web",
		"Show version information":                                     "Mostra a versão",
		"urbnews version %s":                                           "urbnews versão %s",

		// Global flags
		"Path to the YAML configuration file":              "Caminho do arquivo de configuração YAML",
		"Environment file loaded before the configuration": "Arquivo de ambiente carregado antes da configuração",
		"Quality preset (low, medium, high)":               "Predefinição de qualidade (low, medium, high)",
		"Enable debug output":                              "Ativa a saída de depuração",
		"Write a Markdown report next to each archive":     "Grava um relatório Markdown ao lado de cada arquivo zip",
		"Log level (debug, info, warn, error)":             "Nível de log (debug, info, warn, error)",
		"Suppress all log output":                          "Suprime toda a saída de log",

		// Render flags
		"Image or video uploaded as the user media before rendering": "Imagem ou vídeo enviado como mídia do usuário antes de renderizar",
		"Tag text shown in the box":                                  "Texto da retranca exibido na caixa",
		"Headline text":                                              "Texto do título",
		"Render option as key=value, repeatable":                     "Opção de renderização como chave=valor, repetível",
		"Format key to render, repeatable (default: all)":            "Chave do formato a renderizar, repetível (padrão: todos)",
		"Format key (default: the selected format)":                  "Chave do formato (padrão: o formato selecionado)",
		"Listen address (default from configuration)":                "Endereço de escuta (padrão da configuração)",

		// Errors
		"Error: %v":                             "Erro: %v",
		"No video was produced":                 "Nenhum vídeo foi gerado",
		"Invalid option %q, expected key=value": "Opção inválida %q, esperado chave=valor",
	})
}
