package report

import (
	"html/template"
)

// reportTmpl renders the self-contained run report. Layout and styling
// follow the product's report look; everything dynamic comes from
// reportData so rendering stays reproducible under a fixed clock.
var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Browser Automation Report - {{.ReportName}}</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            background: linear-gradient(135deg, #f5f7fa 0%, #c3cfe2 100%);
            min-height: 100vh;
        }

        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
        }

        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 40px;
            border-radius: 15px;
            text-align: center;
            margin-bottom: 30px;
            box-shadow: 0 10px 30px rgba(0,0,0,0.15);
        }

        .mode-badge {
            background: {{.BadgeColor}};
            color: {{.BadgeTextColor}};
            padding: 8px 16px;
            border-radius: 20px;
            font-size: 0.9em;
            font-weight: bold;
            margin-top: 10px;
            display: inline-block;
        }

        .section {
            background: white;
            margin: 20px 0;
            padding: 30px;
            border-radius: 15px;
            box-shadow: 0 5px 20px rgba(0,0,0,0.1);
            border-left: 5px solid #667eea;
        }

        .info-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(300px, 1fr));
            gap: 20px;
            margin: 30px 0;
        }

        .info-card {
            background: white;
            padding: 25px;
            border-radius: 10px;
            box-shadow: 0 5px 15px rgba(0,0,0,0.1);
            border-left: 4px solid #667eea;
        }

        .screenshot-gallery {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(300px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }

        .screenshot-item {
            background: white;
            padding: 20px;
            border-radius: 10px;
            box-shadow: 0 5px 15px rgba(0,0,0,0.1);
            text-align: center;
        }

        .screenshot-item img {
            max-width: 100%;
            height: 200px;
            object-fit: cover;
            border-radius: 8px;
            box-shadow: 0 4px 12px rgba(0,0,0,0.15);
            margin-bottom: 15px;
            background: #f0f0f0;
            cursor: pointer;
        }

        .task-result {
            background: #f8f9fa;
            padding: 20px;
            border-radius: 10px;
            border-left: 4px solid #28a745;
            margin: 20px 0;
            white-space: pre-wrap;
            font-family: 'Courier New', monospace;
            font-size: 0.9em;
            max-height: 400px;
            overflow-y: auto;
        }

        .metrics {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }

        .metric-card {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 25px;
            border-radius: 15px;
            text-align: center;
            box-shadow: 0 8px 25px rgba(102, 126, 234, 0.3);
        }

        .metric-number {
            font-size: 2.5em;
            font-weight: bold;
            margin-bottom: 5px;
            display: block;
        }

        .file-list {
            list-style: none;
            padding: 0;
        }

        .file-list li {
            padding: 10px;
            margin: 5px 0;
            background: #f8f9fa;
            border-radius: 5px;
            border-left: 3px solid #667eea;
        }

        .timestamp {
            color: #666;
            font-size: 0.9em;
        }

        .no-screenshots {
            text-align: center;
            padding: 40px 20px;
            color: #666;
            font-style: italic;
        }

        .screenshot-source {
            font-size: 0.8em;
            color: #666;
            margin-top: 10px;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🤖 Browser Automation Report</h1>
            <h2>{{.ReportName}}</h2>
            <div class="mode-badge">{{.BadgeText}}</div>
            <p class="timestamp">Generated on {{.GeneratedOn}}</p>
        </div>

        <div class="info-grid">
            <div class="info-card">
                <h3>🎯 Task Information</h3>
                <p><strong>Target URL:</strong></p>
                <p><a href="{{.URL}}" target="_blank">{{.URL}}</a></p>
                <p><strong>Task Description:</strong></p>
                <p>{{.Task}}</p>
                <p class="timestamp"><strong>Executed:</strong> {{.ExecutedAt}}</p>
            </div>

            <div class="info-card">
                <h3>📊 Results Summary</h3>
                <div class="metrics">
                    <div class="metric-card">
                        <span class="metric-number">{{len .Shots}}</span>
                        <span>Screenshots</span>
                    </div>
                    <div class="metric-card">
                        <span class="metric-number">✅</span>
                        <span>Status</span>
                    </div>
                </div>
            </div>
        </div>

        <div class="section">
            <h3>🎬 Execution Results</h3>
            <div class="task-result">{{.Result}}</div>
        </div>

        <div class="section">
            <h3>📸 Screenshots Gallery</h3>
            {{if .Shots}}<div class="screenshot-gallery">
            {{range .Shots}}<div class="screenshot-item">
                <h4>Screenshot {{.Index}}</h4>
                <img src="{{.RelPath}}" alt="{{.Name}}"
                     onclick="window.open('{{.RelPath}}', '_blank')"
                     onerror="this.style.display='none'; this.nextElementSibling.style.display='block';">
                <div style="display:none; padding: 60px 20px; background: #f0f0f0; border-radius: 8px;">
                    📷 Image Preview<br>
                    <small>{{.Name}}</small>
                </div>
                <p><strong>File:</strong> {{.Name}}</p>
                <p><strong>Time:</strong> {{.Captured}}</p>
                <p><strong>Size:</strong> {{.Size}}</p>
                <p class="screenshot-source"><strong>Source:</strong> {{.Source}}</p>
            </div>
            {{end}}</div>{{else}}<div class="no-screenshots">
                📷 No screenshots available for this run.<br><br>
                Screenshots are captured automatically during browser automation.
            </div>{{end}}
        </div>

        <div class="section">
            <h3>📁 Generated Files</h3>
            <ul class="file-list">
                <li>📄 <strong>{{.ReportName}}.html</strong> - This report</li>
                <li>📊 <strong>report_data.json</strong> - Machine-readable data</li>
                <li>📁 <strong>screenshots/</strong> - All captured images ({{len .Shots}} files)</li>
                <li>📍 <strong>Location:</strong> {{.RunDir}}</li>
            </ul>
        </div>
    </div>
</body>
</html>
`))

// errorTmpl is the degraded report written when a run fails. It depends
// on nothing collected during the run, only on the submission itself.
var errorTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>Automation Error Report</title></head>
<body>
    <h1>❌ Automation Error Report</h1>
    <p><strong>URL:</strong> {{.URL}}</p>
    <p><strong>Task:</strong> {{.Task}}</p>
    <p><strong>Error:</strong> {{.Error}}</p>
    <p><strong>Time:</strong> {{.Time}}</p>
</body>
</html>
`))

type reportData struct {
	ReportName     string
	URL            string
	Task           string
	Result         string
	GeneratedOn    string
	ExecutedAt     string
	BadgeText      string
	BadgeColor     template.CSS
	BadgeTextColor template.CSS
	RunDir         string
	Shots          []galleryShot
}

type galleryShot struct {
	Index    int
	Name     string
	RelPath  string
	Captured string
	Size     string
	Source   string
}
