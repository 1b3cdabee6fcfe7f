package orchestrator

import (
	"fmt"
	"strconv"

	"github.com/richhaase/agentic-site-builder/internal/domain"
)

// Default design tokens. Colours are HSL triples.
const (
	defaultPrimaryColor   = "222.2 47.4% 11.2%"
	defaultSecondaryColor = "210 40% 96.1%"
	defaultFontFamily     = "Inter"
)

// GlobalsCSS renders app/globals.css from the blueprint's design tokens.
// The stylesheet is templated rather than generated.
func GlobalsCSS(bp *domain.Blueprint) string {
	primary := bp.DesignToken("primary_color", defaultPrimaryColor)
	secondary := bp.DesignToken("secondary_color", defaultSecondaryColor)
	return fmt.Sprintf(globalsTemplate, primary, secondary)
}

// TailwindConfig renders tailwind.config.ts. It maps every colour variable
// declared by GlobalsCSS to a theme colour and uses the blueprint font.
func TailwindConfig(bp *domain.Blueprint) string {
	font := bp.DesignToken("font_family", defaultFontFamily)
	return fmt.Sprintf(tailwindTemplate, strconv.Quote(font))
}

const tailwindTemplate = `import type { Config } from "tailwindcss";

const config: Config = {
  darkMode: ["class"],
  content: [
    "./app/**/*.{js,ts,jsx,tsx,mdx}",
    "./components/**/*.{js,ts,jsx,tsx,mdx}",
  ],
  theme: {
    extend: {
      colors: {
        border: "hsl(var(--border))",
        input: "hsl(var(--input))",
        ring: "hsl(var(--ring))",
        background: "hsl(var(--background))",
        foreground: "hsl(var(--foreground))",
        primary: {
          DEFAULT: "hsl(var(--primary))",
          foreground: "hsl(var(--primary-foreground))",
        },
        secondary: {
          DEFAULT: "hsl(var(--secondary))",
          foreground: "hsl(var(--secondary-foreground))",
        },
        destructive: {
          DEFAULT: "hsl(var(--destructive))",
          foreground: "hsl(var(--destructive-foreground))",
        },
        muted: {
          DEFAULT: "hsl(var(--muted))",
          foreground: "hsl(var(--muted-foreground))",
        },
        accent: {
          DEFAULT: "hsl(var(--accent))",
          foreground: "hsl(var(--accent-foreground))",
        },
        popover: {
          DEFAULT: "hsl(var(--popover))",
          foreground: "hsl(var(--popover-foreground))",
        },
        card: {
          DEFAULT: "hsl(var(--card))",
          foreground: "hsl(var(--card-foreground))",
        },
      },
      borderRadius: {
        lg: "var(--radius)",
        md: "calc(var(--radius) - 2px)",
        sm: "calc(var(--radius) - 4px)",
      },
      fontFamily: {
        sans: [%s, "ui-sans-serif", "system-ui", "sans-serif"],
      },
    },
  },
  plugins: [],
};

export default config;
`

const globalsTemplate = `@tailwind base;
@tailwind components;
@tailwind utilities;

@layer base {
  :root {
    --background: 0 0%% 100%%;
    --foreground: 222.2 84%% 4.9%%;
    --card: 0 0%% 100%%;
    --card-foreground: 222.2 84%% 4.9%%;
    --popover: 0 0%% 100%%;
    --popover-foreground: 222.2 84%% 4.9%%;
    --primary: %s;
    --primary-foreground: 210 40%% 98%%;
    --secondary: %s;
    --secondary-foreground: 222.2 47.4%% 11.2%%;
    --muted: 210 40%% 96.1%%;
    --muted-foreground: 215.4 16.3%% 46.9%%;
    --accent: 210 40%% 96.1%%;
    --accent-foreground: 222.2 47.4%% 11.2%%;
    --destructive: 0 84.2%% 60.2%%;
    --destructive-foreground: 210 40%% 98%%;
    --border: 214.3 31.8%% 91.4%%;
    --input: 214.3 31.8%% 91.4%%;
    --ring: 222.2 84%% 4.9%%;
    --radius: 0.5rem;
  }

  .dark {
    --background: 222.2 84%% 4.9%%;
    --foreground: 210 40%% 98%%;
    --card: 222.2 84%% 4.9%%;
    --card-foreground: 210 40%% 98%%;
    --popover: 222.2 84%% 4.9%%;
    --popover-foreground: 210 40%% 98%%;
    --primary: 210 40%% 98%%;
    --primary-foreground: 222.2 47.4%% 11.2%%;
    --secondary: 217.2 32.6%% 17.5%%;
    --secondary-foreground: 210 40%% 98%%;
    --muted: 217.2 32.6%% 17.5%%;
    --muted-foreground: 215 20.2%% 65.1%%;
    --accent: 217.2 32.6%% 17.5%%;
    --accent-foreground: 210 40%% 98%%;
    --destructive: 0 62.8%% 30.6%%;
    --destructive-foreground: 210 40%% 98%%;
    --border: 217.2 32.6%% 17.5%%;
    --input: 217.2 32.6%% 17.5%%;
    --ring: 212.7 26.8%% 83.9%%;
  }
}

@layer base {
  * {
    @apply border-border;
  }
  body {
    @apply bg-background text-foreground;
    font-feature-settings: "cv02", "cv03", "cv04", "cv11";
  }
}
`
